package chatbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// ManifestFile is the name of the manifest inside a chatbase directory.
const ManifestFile = "manifest.json"

// maxParallelLoads bounds concurrent NPC file reads.
const maxParallelLoads = 8

// ErrUnsafePath is returned when a manifest names a file outside its
// directory.
var ErrUnsafePath = errors.New("chatbase: file path escapes the chatbase directory")

// Manifest enumerates the per-NPC files of a chatbase directory.
type Manifest struct {
	Version     int           `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	NPCs        []ManifestNPC `json:"npcs"`
	Stats       Stats         `json:"stats"`
}

// ManifestNPC describes one per-NPC file.
type ManifestNPC struct {
	ID      types.NPCID `json:"id"`
	File    string      `json:"file"`
	Entries int         `json:"entries"`
}

// NPCFile is the content of one per-NPC file.
type NPCFile struct {
	NPC     types.NPCID `json:"npc"`
	Entries []Entry     `json:"entries"`
}

// ReadManifest reads the manifest in dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ReadNPCFile reads one per-NPC file.
func ReadNPCFile(path string) (NPCFile, error) {
	var f NPCFile
	if err := readJSON(path, &f); err != nil {
		return NPCFile{}, err
	}
	return f, nil
}

// npcPath resolves the file of n inside dir. Absolute paths and paths that
// climb out of dir are refused.
func npcPath(dir string, n ManifestNPC) (string, error) {
	if !filepath.IsLocal(n.File) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, n.File)
	}
	return filepath.Join(dir, n.File), nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("chatbase: open %q: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("chatbase: decode %q: %w", path, err)
	}
	return nil
}

// Load reads the manifest in dir and every NPC file it lists, concurrently,
// and builds an index. Entries whose npc field is empty take the owner from
// the file.
func Load(ctx context.Context, dir string) (*Index, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	files := make([]NPCFile, len(m.NPCs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, n := range m.NPCs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := npcPath(dir, n)
			if err != nil {
				return err
			}
			f, err := ReadNPCFile(path)
			if err != nil {
				return err
			}
			if f.NPC == "" {
				f.NPC = n.ID
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := NewBuilder()
	for _, f := range files {
		for _, e := range f.Entries {
			if e.NPC == "" {
				e.NPC = f.NPC
			}
			if err := b.Add(e); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// LoadOrEmpty is [Load] for the conversation pipeline: when the chatbase
// cannot be read it logs a warning and returns an empty index so that every
// lookup misses and selection falls through to search and random choice.
func LoadOrEmpty(ctx context.Context, dir string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return Empty()
	}
	ix, err := Load(ctx, dir)
	if err != nil {
		logger.Warn("chatbase unavailable, continuing without it", "dir", dir, "err", err)
		return Empty()
	}
	return ix
}

// Validate checks a chatbase directory for consistency between the manifest
// and the NPC files. All problems are reported together.
func Validate(dir string) error {
	m, err := ReadManifest(dir)
	if err != nil {
		return err
	}

	var (
		errs  []error
		total int
		b     = NewBuilder()
	)
	if m.Version <= 0 {
		errs = append(errs, fmt.Errorf("chatbase: manifest: version must be positive, got %d", m.Version))
	}
	seen := make(map[types.NPCID]bool)
	for i, n := range m.NPCs {
		prefix := fmt.Sprintf("chatbase: npcs[%d] (%s)", i, n.ID)
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", prefix))
		}
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("%s: listed twice", prefix))
		}
		seen[n.ID] = true

		path, err := npcPath(dir, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
			continue
		}
		f, err := ReadNPCFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
			continue
		}
		if f.NPC != "" && f.NPC != n.ID {
			errs = append(errs, fmt.Errorf("%s: file belongs to %q", prefix, f.NPC))
		}
		if len(f.Entries) != n.Entries {
			errs = append(errs, fmt.Errorf("%s: manifest lists %d entries, file has %d", prefix, n.Entries, len(f.Entries)))
		}
		for _, e := range f.Entries {
			if e.NPC == "" {
				e.NPC = n.ID
			}
			if err := b.Add(e); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
			}
		}
		total += len(f.Entries)
	}
	if m.Stats.Entries != 0 && m.Stats.Entries != total {
		errs = append(errs, fmt.Errorf("chatbase: manifest stats list %d entries, files hold %d", m.Stats.Entries, total))
	}
	return errors.Join(errs...)
}

// Write stores ix in dir as a manifest plus one file per owner. It is used by
// tests and tooling that derive an index programmatically.
func Write(dir string, ix *Index, generatedAt time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("chatbase: create %q: %w", dir, err)
	}
	m := Manifest{Version: 1, GeneratedAt: generatedAt.UTC(), Stats: ix.Stats()}
	for i, id := range ix.NPCs() {
		f := NPCFile{NPC: id}
		for _, key := range sortedKeys(ix.byNPC[id]) {
			f.Entries = append(f.Entries, ix.byNPC[id][key]...)
		}
		name := fmt.Sprintf("npc-%03d.json", i)
		if err := writeJSON(filepath.Join(dir, name), f); err != nil {
			return err
		}
		m.NPCs = append(m.NPCs, ManifestNPC{ID: id, File: name, Entries: len(f.Entries)})
	}
	return writeJSON(filepath.Join(dir, ManifestFile), m)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("chatbase: encode %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("chatbase: write %q: %w", path, err)
	}
	return nil
}

func sortedKeys(row map[ContextKey][]Entry) []ContextKey {
	keys := make([]ContextKey, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b ContextKey) int { return strings.Compare(a.String(), b.String()) })
	return keys
}
