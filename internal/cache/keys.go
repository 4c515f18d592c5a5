package cache

import "github.com/mmcdole/reelctl/internal/domain"

// Cache keys encode ancestry so that prefix operations cascade
const (
	// PrefixAuth tags every entry tied to the signed-in account (auth:*)
	PrefixAuth = "auth:"

	// KeyCurrentUser is the current user's profile
	KeyCurrentUser = "auth:me"

	// PrefixVideos is the whole video namespace (videos:*)
	PrefixVideos = "videos:"

	// PrefixVideoLists is the prefix for list caches (videos:list:{platform|all})
	PrefixVideoLists = "videos:list:"

	// PrefixVideoDetail is the prefix for single entry caches (videos:detail:{id})
	PrefixVideoDetail = "videos:detail:"
)

const allPlatforms = "all"

// VideoListKey returns the list key for a platform. An empty platform is the
// unfiltered list.
func VideoListKey(p domain.Platform) string {
	if p == "" {
		return PrefixVideoLists + allPlatforms
	}
	return PrefixVideoLists + string(p)
}

func VideoDetailKey(id string) string {
	return PrefixVideoDetail + id
}

// ListKeysFor returns the list keys that contain entries of platform p:
// its own list and the unfiltered one.
func ListKeysFor(p domain.Platform) []string {
	return []string{VideoListKey(p), VideoListKey("")}
}
