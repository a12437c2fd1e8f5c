package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// ListFolder lists every non-trashed child of a folder, following page
// tokens until the listing is exhausted. Items keep the order the pages
// returned them in.
func (c *Client) ListFolder(ctx context.Context, folderID string) (*types.RemoteItemList, error) {
	reqCtx := NewRequestContext(types.RequestTypeListOrSearch)
	reqCtx.InvolvedParentIDs = append(reqCtx.InvolvedParentIDs, folderID)
	shaper := NewRequestShaper(c)

	result := &types.RemoteItemList{ParentID: folderID, Items: []types.RemoteItem{}}
	pageToken := ""

	for {
		call := c.service.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryValue(folderID))).
			PageSize(utils.ListPageSize).
			Fields(googleapi.Field(utils.ListFields)).
			Context(ctx)
		call = shaper.ShapeFilesList(call, reqCtx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := ExecuteWithRetry(ctx, c, reqCtx, func() (*drive.FileList, error) {
			return call.Do()
		})
		if err != nil {
			return nil, err
		}

		result.Pages++
		for _, f := range page.Files {
			c.resourceKeyMgr.UpdateFromAPIResponse(f.Id, f.ResourceKey)
			result.Items = append(result.Items, convertRemoteItem(f))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.WithTraceID(reqCtx.TraceID).Debug("Listed folder",
		logging.F("folderId", folderID),
		logging.F("items", len(result.Items)),
		logging.F("pages", result.Pages),
	)
	return result, nil
}

// ListChildren returns the complete ordered child list of a folder
func (c *Client) ListChildren(ctx context.Context, folderID string) ([]types.RemoteItem, error) {
	list, err := c.ListFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// FetchMetadata retrieves the attributes recorded for a synced leaf
func (c *Client) FetchMetadata(ctx context.Context, itemID string) (types.RemoteItemMetadata, error) {
	reqCtx := NewRequestContext(types.RequestTypeGetByID)
	reqCtx.InvolvedFileIDs = append(reqCtx.InvolvedFileIDs, itemID)

	call := c.service.Files.Get(itemID).
		Fields(googleapi.Field(utils.MetadataFields)).
		Context(ctx)
	call = NewRequestShaper(c).ShapeFilesGet(call, reqCtx)

	file, err := ExecuteWithRetry(ctx, c, reqCtx, func() (*drive.File, error) {
		return call.Do()
	})
	if err != nil {
		return types.RemoteItemMetadata{}, err
	}
	return convertMetadata(file), nil
}

// GetItem retrieves a single item with the attributes a listing returns
func (c *Client) GetItem(ctx context.Context, itemID string) (types.RemoteItem, error) {
	reqCtx := NewRequestContext(types.RequestTypeGetByID)
	reqCtx.InvolvedFileIDs = append(reqCtx.InvolvedFileIDs, itemID)

	call := c.service.Files.Get(itemID).
		Fields(googleapi.Field(utils.ItemFields)).
		Context(ctx)
	call = NewRequestShaper(c).ShapeFilesGet(call, reqCtx)

	file, err := ExecuteWithRetry(ctx, c, reqCtx, func() (*drive.File, error) {
		return call.Do()
	})
	if err != nil {
		return types.RemoteItem{}, err
	}
	if file.ResourceKey != "" {
		c.resourceKeyMgr.UpdateFromAPIResponse(file.Id, file.ResourceKey)
	}
	return convertRemoteItem(file), nil
}

// FetchBytes downloads the raw content of a regular file
func (c *Client) FetchBytes(ctx context.Context, itemID string) ([]byte, error) {
	reqCtx := NewRequestContext(types.RequestTypeDownload)
	reqCtx.InvolvedFileIDs = append(reqCtx.InvolvedFileIDs, itemID)

	call := c.service.Files.Get(itemID).Context(ctx)
	call = NewRequestShaper(c).ShapeFilesGet(call, reqCtx)

	resp, err := ExecuteWithRetry(ctx, c, reqCtx, func() (*http.Response, error) {
		return call.Download()
	})
	if err != nil {
		return nil, err
	}
	return c.readBody(resp, reqCtx)
}

// ExportDocument converts a native document to mimeType and returns the bytes
func (c *Client) ExportDocument(ctx context.Context, itemID, mimeType string) ([]byte, error) {
	reqCtx := NewRequestContext(types.RequestTypeExport)
	reqCtx.InvolvedFileIDs = append(reqCtx.InvolvedFileIDs, itemID)

	call := c.service.Files.Export(itemID, mimeType).Context(ctx)
	call = NewRequestShaper(c).ShapeFilesExport(call, reqCtx)

	resp, err := ExecuteWithRetry(ctx, c, reqCtx, func() (*http.Response, error) {
		return call.Download()
	})
	if err != nil {
		return nil, err
	}
	return c.readBody(resp, reqCtx)
}

func (c *Client) readBody(resp *http.Response, reqCtx *types.RequestContext) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(err, reqCtx, c.logger)
	}
	return data, nil
}

// escapeQueryValue escapes a literal for use inside a Drive query string
func escapeQueryValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}
