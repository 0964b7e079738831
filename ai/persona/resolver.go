// Package persona resolves the docent persona text for an exhibit key with
// a three-level fallback: class under location, location default, global
// default.
package persona

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultGlobalPersona is used when no persona files are configured at all.
const DefaultGlobalPersona = "당신은 친절하고 박식한 미술관 도슨트입니다."

// locationPersonas holds the personas configured under one location.
type locationPersonas struct {
	defaultText string
	classes     map[string]string
}

// Resolver is a read-only persona lookup. Reload swaps the whole table
// atomically, so concurrent Resolve calls observe either the old or the new
// set, never a mix.
type Resolver struct {
	mu        sync.RWMutex
	global    string
	locations map[string]*locationPersonas
}

// Load reads the persona directory:
//
//	{dir}/default.txt                 global default persona
//	{dir}/{location}/default.txt      location default persona
//	{dir}/{location}/{class}.txt      class persona
//
// A missing directory is not an error; the resolver then answers with the
// built-in global default.
func Load(dir string) (*Resolver, error) {
	r := &Resolver{}
	if err := r.reload(dir); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resolver) reload(dir string) error {
	global := DefaultGlobalPersona
	locations := make(map[string]*locationPersonas)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("persona directory not found, using built-in default", "dir", dir)
			r.swap(global, locations)
			return nil
		}
		return err
	}

	if text, ok := readPersonaFile(filepath.Join(dir, "default.txt")); ok {
		global = text
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		location := entry.Name()
		lp := &locationPersonas{classes: make(map[string]string)}

		files, err := os.ReadDir(filepath.Join(dir, location))
		if err != nil {
			slog.Error("failed to read persona location directory", "location", location, "error", err)
			continue
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".txt") {
				continue
			}
			name := strings.TrimSuffix(file.Name(), ".txt")
			text, ok := readPersonaFile(filepath.Join(dir, location, file.Name()))
			if !ok {
				continue
			}
			if name == "default" {
				lp.defaultText = text
			} else {
				lp.classes[name] = text
				slog.Debug("persona loaded", "location", location, "class", name)
			}
		}
		locations[location] = lp
	}

	r.swap(global, locations)
	return nil
}

func (r *Resolver) swap(global string, locations map[string]*locationPersonas) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = global
	r.locations = locations
}

func readPersonaFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read persona file", "path", path, "error", err)
		}
		return "", false
	}
	text := strings.TrimSpace(string(data))
	return text, text != ""
}

// Resolve returns the persona for an exhibit: class persona when present,
// else location default, else global default, else empty string.
func (r *Resolver) Resolve(location, className string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if lp, ok := r.locations[location]; ok {
		if text, ok := lp.classes[className]; ok {
			return text
		}
		if lp.defaultText != "" {
			return lp.defaultText
		}
	}
	return r.global
}
