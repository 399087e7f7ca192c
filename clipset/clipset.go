// Package clipset loads the manifest describing a batch of synthetic clips
// an Objective evaluates: for each clip, where its reference and detection
// files live and how many frames it spans.
//
// Grounded on the teacher's video.go loading of seqinfo.ini via
// gopkg.in/ini.v1 (section "Sequence", MustInt/MustString defaults),
// repurposed from one video's capture metadata to a batch manifest listing
// many clips, one "[clip_N]" section per clip.
package clipset

import (
	"fmt"
	"path/filepath"
	"sort"

	"gopkg.in/ini.v1"
)

// Clip describes one entry in a manifest: its name and the paths to its
// reference and detection files, relative to the manifest's directory
// unless already absolute.
type Clip struct {
	Name           string
	ReferencesPath string
	DetectionsPath string
	FrameCount     int
}

// Manifest is an ordered batch of clips, as loaded from a clipset.ini file.
type Manifest struct {
	Clips []Clip
}

// Load reads an INI manifest where each section (other than DEFAULT) names
// one clip, e.g.:
//
//	[clip_0]
//	references = clip_0/references.json
//	detections = clip_0/detections.json
//	frames     = 50
//
// Relative references/detections paths are resolved against the
// manifest's own directory.
func Load(path string) (*Manifest, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("clipset: load %q: %w", path, err)
	}
	base := filepath.Dir(path)

	sections := cfg.Sections()
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, s.Name())
	}
	sort.Strings(names)

	m := &Manifest{}
	for _, name := range names {
		section := cfg.Section(name)
		refs := section.Key("references").MustString("")
		dets := section.Key("detections").MustString("")
		frames := section.Key("frames").MustInt(0)
		if refs == "" || dets == "" || frames <= 0 {
			return nil, fmt.Errorf("clipset: section %q missing required references/detections/frames", name)
		}
		m.Clips = append(m.Clips, Clip{
			Name:           name,
			ReferencesPath: resolve(base, refs),
			DetectionsPath: resolve(base, dets),
			FrameCount:     frames,
		})
	}
	return m, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
