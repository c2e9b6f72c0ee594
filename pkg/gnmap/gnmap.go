// Package gnmap loads nmap greppable output files and derives network
// segments from them. The filename decides the segment's name and PCI
// classification; the file body decides which hosts the segment
// reaches.
package gnmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/segmatrix/segmatrix/pkg/segment"
)

// Extension is the scan-file extension the loader discovers.
const Extension = ".gnmap"

// Filename prefixes that classify a segment. Matching is
// case-insensitive on the prefix only; the remainder keeps its case.
const (
	pciPrefix    = "pci -"
	nonPCIPrefix = "non pci -"
)

// Scanner line buffer sizing. gnmap Ports: lines grow with one entry
// per scanned port, so a full 65535-port scan needs room well past
// bufio's default.
const (
	scanBufSize = 64 * 1024
	scanBufMax  = 4 * 1024 * 1024
)

// Duplicate records two input files that derived the same segment
// name. The later file's contents win, matching the permissive
// default; strict mode turns any Duplicate into a fatal error.
type Duplicate struct {
	Name    string // derived segment name
	Kept    string // source file whose contents won
	Dropped string // earlier source file that was overridden
}

func (d Duplicate) String() string {
	return fmt.Sprintf("segment %q: %s overrides %s", d.Name, d.Kept, d.Dropped)
}

// ParseFilename derives a segment type and name from a scan filename.
// The extension is stripped, then the stem is matched against the
// classification prefixes:
//
//	"PCI - DMZ.gnmap"      → pci, "DMZ"
//	"NON PCI - Corp.gnmap" → non_pci, "Corp"
//	"Other.gnmap"          → unknown, "Other"
//
// Prefix matching is case-insensitive; the name is the stem after a
// fixed-width prefix cut (6 characters for PCI, 10 for non-PCI),
// trimmed of surrounding whitespace.
func ParseFilename(filename string) (segment.Type, string) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	lower := strings.ToLower(stem)

	switch {
	case strings.HasPrefix(lower, pciPrefix):
		return segment.PCI, strings.TrimSpace(cut(stem, 6))
	case strings.HasPrefix(lower, nonPCIPrefix):
		return segment.NonPCI, strings.TrimSpace(cut(stem, 10))
	default:
		return segment.Unknown, stem
	}
}

// cut returns s with the first n bytes removed, or "" when s is
// shorter. Prefixes are ASCII so byte offsets are safe here.
func cut(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[n:]
}

// ParseHosts extracts the reachable-host set from one gnmap stream.
// A line is a host record iff it starts with the literal "Host:"; the
// second whitespace-separated field is the host address. The host
// counts as reachable only when the same line also contains "Ports:"
// and "open", i.e. the scan saw at least one open port. Every other
// line is skipped. A Host: line without an address field is a
// malformed record and fails the whole file.
func ParseHosts(r io.Reader) (map[string]struct{}, error) {
	hosts := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, scanBufSize), scanBufMax)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !strings.HasPrefix(line, "Host:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d has no address field", ErrMalformedRecord, lineNo)
		}
		if strings.Contains(line, "Ports:") && strings.Contains(line, "open") {
			hosts[fields[1]] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gnmap: read line %d: %w", lineNo+1, err)
	}
	return hosts, nil
}

// Load discovers every *.gnmap file in dir and builds one segment per
// file. Files are processed in sorted order so repeat runs see the
// same result regardless of directory enumeration order. Zero
// matching files is not an error; the caller gets an empty slice.
//
// When two files derive the same segment name the later file wins and
// the collision is returned so the caller can warn or abort.
func Load(dir string) ([]segment.Segment, []Duplicate, error) {
	pattern := filepath.Join(dir, "*"+Extension)
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("gnmap: glob %q: %w", pattern, err)
	}
	sort.Strings(files)

	segments := make([]segment.Segment, 0, len(files))
	index := make(map[string]int, len(files))
	var dups []Duplicate

	for _, path := range files {
		seg, err := loadFile(path)
		if err != nil {
			return nil, nil, err
		}

		if prev, ok := index[seg.Name]; ok {
			dups = append(dups, Duplicate{
				Name:    seg.Name,
				Kept:    seg.Source,
				Dropped: segments[prev].Source,
			})
			segments[prev] = seg
			continue
		}
		index[seg.Name] = len(segments)
		segments = append(segments, seg)
	}
	return segments, dups, nil
}

// loadFile parses one scan file into a segment.
func loadFile(path string) (segment.Segment, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return segment.Segment{}, fmt.Errorf("gnmap: open %s: %w", path, err)
	}
	defer f.Close()

	hosts, err := ParseHosts(f)
	if err != nil {
		return segment.Segment{}, fmt.Errorf("gnmap: parse %s: %w", path, err)
	}

	source := filepath.Base(path)
	segType, name := ParseFilename(source)
	log.Debug("loaded segment",
		"file", source,
		"type", segType,
		"name", name,
		"hosts", len(hosts),
		"duration", time.Since(start).Round(time.Microsecond))

	return segment.Segment{
		Name:   name,
		Type:   segType,
		Source: source,
		Hosts:  hosts,
	}, nil
}
