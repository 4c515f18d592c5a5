package video

import (
	"fmt"

	"github.com/mmcdole/reelctl/internal/domain"
)

const (
	msgCreated = "Video created successfully"
	msgSaved   = "Video saved successfully"
	msgDeleted = "Video deleted successfully"

	msgCreateFailed = "Failed to create video"
	msgUpdateFailed = "Failed to update video"
	msgDeleteFailed = "Failed to delete video"
	msgCopyFailed   = "Failed to copy video"
	msgLoadFailed   = "Failed to load videos"
	msgNoDraft      = "No unsaved changes for this video"
)

func msgCopied(p domain.Platform) string {
	return fmt.Sprintf("Video copied to %s", p.DisplayName())
}
