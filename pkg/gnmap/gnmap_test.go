package gnmap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmatrix/segmatrix/pkg/segment"
)

func TestParseFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		wantType segment.Type
		wantName string
	}{
		{"PCI - DMZ.gnmap", segment.PCI, "DMZ"},
		{"pci - dmz.gnmap", segment.PCI, "dmz"},
		{"Pci - Store LAN.gnmap", segment.PCI, "Store LAN"},
		{"PCI - DMZ.GNMAP", segment.PCI, "DMZ"},
		{"PCI - DMZ", segment.PCI, "DMZ"},
		{"NON PCI - Corp.gnmap", segment.NonPCI, "Corp"},
		{"non pci - guest wifi.gnmap", segment.NonPCI, "guest wifi"},
		{"Non Pci - Corp.gnmap", segment.NonPCI, "Corp"},
		{"Other.gnmap", segment.Unknown, "Other"},
		{"pcidss.gnmap", segment.Unknown, "pcidss"},
		{"non pci.gnmap", segment.Unknown, "non pci"},
		// Prefix-only stems leave an empty name.
		{"PCI -.gnmap", segment.PCI, ""},
		{"PCI - .gnmap", segment.PCI, ""},
		{"NON PCI -.gnmap", segment.NonPCI, ""},
		// The cut is fixed-width: it always consumes one character
		// after the dash, conventionally the space.
		{"PCI -Tight.gnmap", segment.PCI, "ight"},
		// Extra padding around the name is trimmed.
		{"PCI -   Padded   .gnmap", segment.PCI, "Padded"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()
			gotType, gotName := ParseFilename(tt.filename)
			if gotType != tt.wantType || gotName != tt.wantName {
				t.Errorf("ParseFilename(%q) = (%s, %q), want (%s, %q)",
					tt.filename, gotType, gotName, tt.wantType, tt.wantName)
			}
		})
	}
}

func TestParseHosts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name: "open ports mark host reachable",
			input: "# Nmap 7.94 scan initiated\n" +
				"Host: 10.0.0.5 ()\tStatus: Up\n" +
				"Host: 10.0.0.5 ()\tPorts: 22/open/tcp//ssh///, 443/open/tcp//https///\tIgnored State: closed (998)\n" +
				"# Nmap done\n",
			want: []string{"10.0.0.5"},
		},
		{
			name: "filtered ports do not count",
			input: "Host: 10.0.0.7 ()\tStatus: Up\n" +
				"Host: 10.0.0.7 ()\tPorts: 80/filtered/tcp//http///\n",
			want: nil,
		},
		{
			name:  "open without a Ports field does not count",
			input: "Host: 10.0.0.2 (open.example.com)\tStatus: Up\n",
			want:  nil,
		},
		{
			name:  "ports without open does not count",
			input: "Host: 10.0.0.3 ()\tPorts: 443/closed/tcp//https///\n",
			want:  nil,
		},
		{
			name: "multiple hosts",
			input: "Host: 10.0.0.5 ()\tPorts: 22/open/tcp//ssh///\n" +
				"Host: 10.0.0.6 ()\tPorts: 25/open/tcp//smtp///\n" +
				"Host: 10.0.0.7 ()\tPorts: 80/filtered/tcp//http///\n",
			want: []string{"10.0.0.5", "10.0.0.6"},
		},
		{
			name: "duplicate records collapse into one host",
			input: "Host: 10.0.0.5 ()\tPorts: 22/open/tcp//ssh///\n" +
				"Host: 10.0.0.5 ()\tPorts: 443/open/tcp//https///\n",
			want: []string{"10.0.0.5"},
		},
		{
			name:  "non-host lines are skipped",
			input: "Ports scanned: 1000\nhost: 10.0.0.5 lowercase prefix\n",
			want:  nil,
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseHosts(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseHosts: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d hosts %v, want %d", len(got), got, len(tt.want))
			}
			for _, h := range tt.want {
				if _, ok := got[h]; !ok {
					t.Errorf("missing host %s", h)
				}
			}
		})
	}
}

func TestParseHostsMalformedRecord(t *testing.T) {
	t.Parallel()

	input := "Host: 10.0.0.5 ()\tPorts: 22/open/tcp//ssh///\nHost:\n"
	_, err := ParseHosts(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for Host: line without address")
	}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("error = %v, want ErrMalformedRecord", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name line 2", err)
	}
}

func writeScanFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const reachableBody = "Host: 10.0.0.5 ()\tPorts: 22/open/tcp//ssh///\n"

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScanFile(t, dir, "PCI - DMZ.gnmap", reachableBody)
	writeScanFile(t, dir, "NON PCI - Corp.gnmap",
		"Host: 10.0.0.5 ()\tPorts: 443/open/tcp//https///\n"+
			"Host: 10.0.0.9 ()\tPorts: 445/open/tcp//smb///\n")
	writeScanFile(t, dir, "Other.gnmap", "Host: 10.0.0.7 ()\tStatus: Up\n")
	writeScanFile(t, dir, "notes.txt", "not a scan file\n")

	segments, dups, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(dups) != 0 {
		t.Errorf("unexpected duplicates: %v", dups)
	}
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}

	// File order is sorted, so segments arrive deterministically.
	wantSources := []string{"NON PCI - Corp.gnmap", "Other.gnmap", "PCI - DMZ.gnmap"}
	for i, want := range wantSources {
		if segments[i].Source != want {
			t.Errorf("segment %d source = %q, want %q", i, segments[i].Source, want)
		}
	}

	byName := make(map[string]segment.Segment)
	for _, s := range segments {
		byName[s.Name] = s
	}
	if s := byName["DMZ"]; s.Type != segment.PCI || !s.Reaches("10.0.0.5") {
		t.Errorf("DMZ = %+v, want pci segment reaching 10.0.0.5", s)
	}
	if s := byName["Corp"]; s.Type != segment.NonPCI || len(s.Hosts) != 2 {
		t.Errorf("Corp = %+v, want non_pci segment with 2 hosts", s)
	}
	if s := byName["Other"]; s.Type != segment.Unknown || len(s.Hosts) != 0 {
		t.Errorf("Other = %+v, want unknown segment with no reachable hosts", s)
	}
}

func TestLoadEmptyDir(t *testing.T) {
	t.Parallel()

	segments, dups, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(segments) != 0 || len(dups) != 0 {
		t.Errorf("got %d segments, %d duplicates, want none", len(segments), len(dups))
	}
}

func TestLoadDuplicateSegmentNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScanFile(t, dir, "PCI - DMZ.gnmap", reachableBody)
	writeScanFile(t, dir, "pci - DMZ.gnmap",
		"Host: 10.0.0.8 ()\tPorts: 8443/open/tcp//https-alt///\n")

	segments, dups, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1 after overwrite", len(segments))
	}
	if len(dups) != 1 {
		t.Fatalf("got %d duplicates, want 1", len(dups))
	}

	d := dups[0]
	if d.Name != "DMZ" {
		t.Errorf("duplicate name = %q, want DMZ", d.Name)
	}
	// "PCI - ..." sorts before "pci - ...", so the lowercase file is
	// processed second and wins.
	if d.Kept != "pci - DMZ.gnmap" || d.Dropped != "PCI - DMZ.gnmap" {
		t.Errorf("duplicate = %+v, want later file kept", d)
	}
	if !segments[0].Reaches("10.0.0.8") || segments[0].Reaches("10.0.0.5") {
		t.Errorf("segment hosts = %v, want only the later file's host", segments[0].Hosts)
	}
	if got := d.String(); !strings.Contains(got, "DMZ") || !strings.Contains(got, "overrides") {
		t.Errorf("Duplicate.String() = %q", got)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScanFile(t, dir, "PCI - DMZ.gnmap", "Host:\n")

	_, _, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for malformed scan file")
	}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("error = %v, want ErrMalformedRecord", err)
	}
	if !strings.Contains(err.Error(), "PCI - DMZ.gnmap") {
		t.Errorf("error %q should name the failing file", err)
	}
}
