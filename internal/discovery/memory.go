// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

type (
	memUnit struct {
		file string
		pkg  bool
		data []byte
	}

	// Memory is a Finder over units registered in memory. File names are
	// synthesised from module names the way Discovery lays units out on disk.
	Memory struct {
		mu    sync.RWMutex
		units map[string]memUnit
		finds map[string]int
	}
)

// NewMemory creates an empty in-memory finder.
func NewMemory() *Memory {
	return &Memory{units: make(map[string]memUnit), finds: make(map[string]int)}
}

// Add registers a CUE module unit.
func (m *Memory) Add(name, src string) *Memory {
	return m.add(name, unitFile(name, false, unit.CUEExt), false, src)
}

// AddPackage registers a CUE package initialiser.
func (m *Memory) AddPackage(name, src string) *Memory {
	return m.add(name, unitFile(name, true, unit.CUEExt), true, src)
}

// AddTOML registers a TOML module unit.
func (m *Memory) AddTOML(name, src string) *Memory {
	return m.add(name, unitFile(name, false, unit.TOMLExt), false, src)
}

// AddHCL registers an HCL module.
func (m *Memory) AddHCL(name, src string) *Memory {
	return m.add(name, unitFile(name, false, unit.HCLExt), false, src)
}

func (m *Memory) add(name, file string, pkg bool, src string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[name] = memUnit{file: file, pkg: pkg, data: []byte(src)}
	return m
}

// Remove unregisters name.
func (m *Memory) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.units, name)
}

// Find implements lazyimport.Finder.
func (m *Memory) Find(ctx context.Context, name string) (*lazyimport.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds[name]++
	u, ok := m.units[name]
	if !ok {
		return nil, &lazyimport.ModuleNotFoundError{Name: name}
	}
	return &lazyimport.Source{Name: name, File: u.file, Package: u.pkg, Data: slices.Clone(u.data)}, nil
}

// Finds returns how many times name was looked up.
func (m *Memory) Finds(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finds[name]
}

// List returns the registered modules sorted by name.
func (m *Memory) List() []ModuleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mods := make([]ModuleInfo, 0, len(m.units))
	for name, u := range m.units {
		f, _, _ := unit.FormatOf(u.file)
		mods = append(mods, ModuleInfo{Name: name, Path: u.file, Package: u.pkg, Format: f.Name, Source: SourceMemory})
	}
	slices.SortFunc(mods, func(a, b ModuleInfo) int { return strings.Compare(a.Name, b.Name) })
	return mods
}

func unitFile(name string, pkg bool, ext string) string {
	p := path.Join(strings.Split(name, ".")...)
	if pkg {
		return path.Join(p, InitName) + ext
	}
	return p + ext
}
