package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/schema"
)

const pathVideos = "/videos"

const (
	msgInvalidVideo     = "Invalid video data from server"
	msgInvalidVideoList = "Invalid video list from server"
)

func videoPath(id string) string {
	return pathVideos + "/" + url.PathEscape(id)
}

// ListVideos returns one page of entries, optionally for one platform
func (c *Client) ListVideos(ctx context.Context, q domain.VideoListQuery) (*domain.VideoPage, error) {
	query := url.Values{}
	if q.Platform != "" {
		query.Set("platform", string(q.Platform))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}

	data, err := c.doRequest(ctx, http.MethodGet, pathVideos, query, nil)
	if err != nil {
		return nil, err
	}
	return decode("GET "+pathVideos, msgInvalidVideoList, data, schema.VideoList)
}

func (c *Client) GetVideo(ctx context.Context, id string) (*domain.VideoEntry, error) {
	path := videoPath(id)
	data, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode("GET "+path, msgInvalidVideo, data, schema.VideoEntry)
}

func (c *Client) CreateVideo(ctx context.Context, req domain.VideoCreateRequest) (*domain.VideoEntry, error) {
	payload, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	data, err := c.doRequest(ctx, http.MethodPost, pathVideos, nil, payload)
	if err != nil {
		return nil, err
	}
	return decode("POST "+pathVideos, msgInvalidVideo, data, schema.VideoEntry)
}

// UpdateVideo sends only the fields set in req
func (c *Client) UpdateVideo(ctx context.Context, id string, req domain.VideoUpdateRequest) (*domain.VideoEntry, error) {
	payload, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	path := videoPath(id)
	data, err := c.doRequest(ctx, http.MethodPatch, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return decode("PATCH "+path, msgInvalidVideo, data, schema.VideoEntry)
}

func (c *Client) DeleteVideo(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, videoPath(id), nil, nil)
	return err
}

// CopyVideo creates a copy of an entry on another platform
func (c *Client) CopyVideo(ctx context.Context, id string, req domain.VideoCopyRequest) (*domain.VideoEntry, error) {
	payload, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	path := videoPath(id) + "/copy"
	data, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return decode("POST "+path, msgInvalidVideo, data, schema.VideoEntry)
}
