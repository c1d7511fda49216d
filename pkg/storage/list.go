package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// MaxListCap bounds the page size of blob listing requests.
const MaxListCap int32 = 500

// BlobMeta describes a stored blob.
type BlobMeta struct {
	Key           string     `json:"key"`
	ContentType   string     `json:"content_type"`
	ContentLength int64      `json:"content_length"`
	LastModified  *time.Time `json:"last_modified"`
}

// ListResult is one page of blob metadata. NextMarker continues the
// listing when more blobs remain.
type ListResult struct {
	Items      []BlobMeta `json:"items"`
	NextMarker string     `json:"next_marker,omitempty"`
}

// ParseMaxResults parses a max_results query value, clamping to the
// configured limit. An empty value yields the limit itself.
func ParseMaxResults(value string, limit int32) (int32, error) {
	if value == "" {
		return limit, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid max_results: %q", value)
	}
	return min(int32(n), limit), nil
}

func (a *azure) List(ctx context.Context, prefix, marker string, maxResults int32) (*ListResult, error) {
	opts := &azblob.ListBlobsFlatOptions{
		MaxResults: &maxResults,
	}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	if marker != "" {
		opts.Marker = &marker
	}

	pager := a.client.NewListBlobsFlatPager(a.container, opts)
	if !pager.More() {
		return &ListResult{Items: []BlobMeta{}}, nil
	}

	page, err := pager.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	result := &ListResult{Items: make([]BlobMeta, 0, len(page.Segment.BlobItems))}
	for _, item := range page.Segment.BlobItems {
		meta := BlobMeta{LastModified: item.Properties.LastModified}
		if item.Name != nil {
			meta.Key = *item.Name
		}
		if item.Properties.ContentType != nil {
			meta.ContentType = *item.Properties.ContentType
		}
		if item.Properties.ContentLength != nil {
			meta.ContentLength = *item.Properties.ContentLength
		}
		result.Items = append(result.Items, meta)
	}
	if page.NextMarker != nil {
		result.NextMarker = *page.NextMarker
	}

	return result, nil
}

func (a *azure) Find(ctx context.Context, key string) (*BlobMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	props, err := a.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob properties %s: %w", key, err)
	}

	meta := &BlobMeta{Key: key, LastModified: props.LastModified}
	if props.ContentType != nil {
		meta.ContentType = *props.ContentType
	}
	if props.ContentLength != nil {
		meta.ContentLength = *props.ContentLength
	}

	return meta, nil
}

func (a *azure) blobClient(key string) *blob.Client {
	return a.client.
		ServiceClient().
		NewContainerClient(a.container).
		NewBlobClient(key)
}
