package game

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"sync"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/skeleton"
	"gopkg.in/yaml.v3"
)

// ErrResourceInUse is returned when evicting a clip that is still acquired.
var ErrResourceInUse = errors.New("resource still in use")

// clipEntry is one cached clip and the number of live references to it.
type clipEntry struct {
	clip *keyframe.Clip
	refs int
}

// ResourceManager is responsible for centralized management of animation
// resources. Clips and skeleton hierarchies are parsed once, cached and
// shared read-only by every actor that uses them.
//
// Clips are reference counted: AcquireClip takes a reference, ReleaseClip
// drops it, and Evict frees every clip nobody holds. Skeleton hierarchies
// are small and stay cached until Evict is called with no costume alive.
//
// Thread Safety Note:
// All methods are safe for concurrent use, so resources can be preloaded
// from a loading goroutine while the game loop runs.
//
// Usage:
//
//	rm := NewResourceManager(embedded.Default())
//	clip, err := rm.AcquireClip("assets/clips/walk.key")
//	if err != nil {
//	    log.Printf("Failed to load clip: %v", err)
//	}
//	defer rm.ReleaseClip("assets/clips/walk.key")
type ResourceManager struct {
	fsys fs.FS

	mu        sync.Mutex
	clips     map[string]*clipEntry          // path -> cached clip
	skeletons map[string]*skeleton.Hierarchy // path -> parsed hierarchy

	// YAML resource configuration
	config      *ResourceConfig   // Parsed YAML configuration
	resourceMap map[string]string // Resource ID -> file path mapping for quick lookup
}

// NewResourceManager creates a ResourceManager reading from fsys.
func NewResourceManager(fsys fs.FS) *ResourceManager {
	return &ResourceManager{
		fsys:        fsys,
		clips:       make(map[string]*clipEntry),
		skeletons:   make(map[string]*skeleton.Hierarchy),
		resourceMap: make(map[string]string),
	}
}

// FS returns the file system resources are read from.
func (rm *ResourceManager) FS() fs.FS { return rm.fsys }

// resolvePath maps a resource ID to its path. Anything that is not a known
// ID is taken to be a path already.
func (rm *ResourceManager) resolvePath(nameOrID string) string {
	if p, ok := rm.resourceMap[nameOrID]; ok {
		return p
	}
	return nameOrID
}

// loadClipLocked returns the cache entry for path, parsing the file on the
// first request. rm.mu must be held.
func (rm *ResourceManager) loadClipLocked(path string) (*clipEntry, error) {
	if e, ok := rm.clips[path]; ok {
		return e, nil
	}
	data, err := fs.ReadFile(rm.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip %s: %w", path, err)
	}
	clip, err := keyframe.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clip %s: %w", path, err)
	}
	e := &clipEntry{clip: clip}
	rm.clips[path] = e
	log.Printf("[ResourceManager] Loaded clip %s (%d frames @ %.0f fps, %d tracks)",
		path, clip.NumFrames, clip.FPS, clip.TrackCount())
	return e, nil
}

// LoadClip loads and caches a clip without taking a reference. Clips
// obtained this way may be evicted at any time; actors should use
// AcquireClip.
//
// Parameters:
//   - nameOrID: a resource ID from resources.yaml or a file path
//
// Returns:
//   - The parsed clip, or an error wrapping the keyframe parse error
//     (keyframe.ErrBadMagic, keyframe.ErrTruncated, ...).
func (rm *ResourceManager) LoadClip(nameOrID string) (*keyframe.Clip, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	e, err := rm.loadClipLocked(rm.resolvePath(nameOrID))
	if err != nil {
		return nil, err
	}
	return e.clip, nil
}

// ResolveClip implements chore.ClipResolver on top of LoadClip.
func (rm *ResourceManager) ResolveClip(name string) (*keyframe.Clip, error) {
	return rm.LoadClip(name)
}

// AcquireClip loads a clip and takes a reference to it.
func (rm *ResourceManager) AcquireClip(nameOrID string) (*keyframe.Clip, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	e, err := rm.loadClipLocked(rm.resolvePath(nameOrID))
	if err != nil {
		return nil, err
	}
	e.refs++
	return e.clip, nil
}

// ReleaseClip drops one reference taken by AcquireClip. Releasing a clip
// that is not held logs a warning.
func (rm *ResourceManager) ReleaseClip(nameOrID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	path := rm.resolvePath(nameOrID)
	e, ok := rm.clips[path]
	if !ok || e.refs == 0 {
		log.Printf("[ResourceManager] Warning: release of unreferenced clip %s", path)
		return
	}
	e.refs--
}

// ClipRefs returns the number of references held on a clip.
func (rm *ResourceManager) ClipRefs(nameOrID string) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if e, ok := rm.clips[rm.resolvePath(nameOrID)]; ok {
		return e.refs
	}
	return 0
}

// EvictClip removes one unreferenced clip from the cache.
func (rm *ResourceManager) EvictClip(nameOrID string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	path := rm.resolvePath(nameOrID)
	e, ok := rm.clips[path]
	if !ok {
		return nil
	}
	if e.refs > 0 {
		return fmt.Errorf("%w: clip %s has %d references", ErrResourceInUse, path, e.refs)
	}
	delete(rm.clips, path)
	return nil
}

// Evict removes every unreferenced clip and returns how many were freed.
func (rm *ResourceManager) Evict() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	n := 0
	for path, e := range rm.clips {
		if e.refs == 0 {
			delete(rm.clips, path)
			n++
		}
	}
	if n > 0 {
		log.Printf("[ResourceManager] Evicted %d unused clips", n)
	}
	return n
}

// CachedClips returns the sorted paths of every cached clip.
func (rm *ResourceManager) CachedClips() []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	paths := make([]string, 0, len(rm.clips))
	for p := range rm.clips {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// LoadSkeleton loads and caches a skeleton hierarchy. Hierarchies are
// immutable and shared by every Skeleton built on them.
func (rm *ResourceManager) LoadSkeleton(nameOrID string) (*skeleton.Hierarchy, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	path := rm.resolvePath(nameOrID)
	if h, ok := rm.skeletons[path]; ok {
		return h, nil
	}
	data, err := fs.ReadFile(rm.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skeleton %s: %w", path, err)
	}
	h, err := skeleton.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse skeleton %s: %w", path, err)
	}
	rm.skeletons[path] = h
	log.Printf("[ResourceManager] Loaded skeleton %s (%d bones)", path, h.Len())
	return h, nil
}

// LoadResourceConfig loads and parses the YAML resource configuration file.
// It builds the resource ID -> path map used by every Load method.
func (rm *ResourceManager) LoadResourceConfig(configPath string) error {
	data, err := fs.ReadFile(rm.fsys, configPath)
	if err != nil {
		return fmt.Errorf("failed to read resource config %s: %w", configPath, err)
	}

	var config ResourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse resource config %s: %w", configPath, err)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.config = &config
	rm.buildResourceMap()
	return nil
}

// buildResourceMap indexes every resource ID in the configuration.
// rm.mu must be held.
func (rm *ResourceManager) buildResourceMap() {
	rm.resourceMap = make(map[string]string)
	for name, group := range rm.config.Groups {
		for _, s := range group.Skeletons {
			rm.addResource(name, s.ID, s.Path)
		}
		for _, c := range group.Clips {
			rm.addResource(name, c.ID, c.Path)
		}
	}
}

func (rm *ResourceManager) addResource(group, id, path string) {
	full := buildFullPath(rm.config.BasePath, path)
	if prev, dup := rm.resourceMap[id]; dup && prev != full {
		log.Printf("[ResourceManager] Warning: resource ID %s in group %s remapped from %s to %s", id, group, prev, full)
	}
	rm.resourceMap[id] = full
}

// GetResourcePath returns the path of a resource ID.
func (rm *ResourceManager) GetResourcePath(resourceID string) (string, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	p, ok := rm.resourceMap[resourceID]
	return p, ok
}

// GroupNames returns the sorted names of all configured resource groups.
func (rm *ResourceManager) GroupNames() []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.config == nil {
		return nil
	}
	names := make([]string, 0, len(rm.config.Groups))
	for name := range rm.config.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadResourceGroup preloads every skeleton and clip of a group. Preloaded
// clips hold no reference and can be evicted again.
func (rm *ResourceManager) LoadResourceGroup(groupName string) error {
	rm.mu.Lock()
	if rm.config == nil {
		rm.mu.Unlock()
		return fmt.Errorf("resource config not loaded - call LoadResourceConfig first")
	}
	group, exists := rm.config.Groups[groupName]
	base := rm.config.BasePath
	rm.mu.Unlock()
	if !exists {
		return fmt.Errorf("resource group not found: %s", groupName)
	}

	for _, s := range group.Skeletons {
		if _, err := rm.LoadSkeleton(buildFullPath(base, s.Path)); err != nil {
			return fmt.Errorf("failed to load skeleton %s in group %s: %w", s.ID, groupName, err)
		}
	}
	for _, c := range group.Clips {
		if _, err := rm.LoadClip(buildFullPath(base, c.Path)); err != nil {
			return fmt.Errorf("failed to load clip %s in group %s: %w", c.ID, groupName, err)
		}
	}
	return nil
}
