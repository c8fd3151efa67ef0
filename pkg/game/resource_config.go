package game

// ResourceConfig represents the top-level resource configuration loaded from YAML.
// It defines the structure of data/resources.yaml.
//
// Structure:
//
//	version: "1.0"
//	base_path: assets
//	groups:
//	  group_name:
//	    skeletons: [...]
//	    clips: [...]
type ResourceConfig struct {
	Version  string                   `yaml:"version"`   // Configuration file version
	BasePath string                   `yaml:"base_path"` // Base path for all resources (e.g., "assets")
	Groups   map[string]ResourceGroup `yaml:"groups"`    // Resource groups keyed by group name
}

// ResourceGroup is a set of resources preloaded together, typically
// everything one costume needs.
//
// Example from resources.yaml:
//
//	humanoid:
//	  skeletons:
//	    - id: SKELETON_HUMANOID
//	      path: skeletons/humanoid.skel
//	  clips:
//	    - id: CLIP_WALK
//	      path: clips/walk.key
type ResourceGroup struct {
	Skeletons []SkeletonResource `yaml:"skeletons"`
	Clips     []ClipResource     `yaml:"clips"`
}

// SkeletonResource is a single skeleton definition.
type SkeletonResource struct {
	ID   string `yaml:"id"`   // Resource ID (unique identifier)
	Path string `yaml:"path"` // Relative file path from base_path
}

// ClipResource is a single animation clip definition. The file may be in
// the binary or the text clip format.
type ClipResource struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// buildFullPath constructs the full file path for a resource.
// It combines the base path with the resource's relative path.
//
// Parameters:
//   - basePath: The base path from ResourceConfig (e.g., "assets")
//   - relativePath: The resource's relative path (e.g., "clips/walk.key")
//
// Returns:
//   - The full file path (e.g., "assets/clips/walk.key")
func buildFullPath(basePath, relativePath string) string {
	if basePath == "" {
		return relativePath
	}
	if len(relativePath) > 0 && relativePath[0] == '/' {
		return basePath + relativePath
	}
	return basePath + "/" + relativePath
}
