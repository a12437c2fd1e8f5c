package types

// ItemKind classifies a remote item for the mirror
type ItemKind string

const (
	// KindContainer is a folder; it has children and no content
	KindContainer ItemKind = "container"
	// KindLeaf is a regular file downloadable as raw bytes
	KindLeaf ItemKind = "leaf"
	// KindRichDocument is a native document that must be exported
	KindRichDocument ItemKind = "rich_document"
	// KindUnsupported covers native types that are neither downloadable nor exported
	KindUnsupported ItemKind = "unsupported"
)

// RemoteItem is one entry of a folder listing
type RemoteItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Kind         ItemKind `json:"kind"`
	MimeType     string   `json:"mimeType"`
	ModifiedTime string   `json:"modifiedTime,omitempty"`
	ResourceKey  string   `json:"resourceKey,omitempty"`
}

// IsContainer reports whether the item holds children
func (i RemoteItem) IsContainer() bool {
	return i.Kind == KindContainer
}

// RemoteItemMetadata holds the extended attributes fetched per leaf
type RemoteItemMetadata struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CreatedTime    string `json:"createdTime,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// RemoteItemList is a fully paginated folder listing
type RemoteItemList struct {
	ParentID string       `json:"parentId"`
	Items    []RemoteItem `json:"items"`
	Pages    int          `json:"pages"`
}

func (l *RemoteItemList) AsTableRenderer() TableRenderer {
	return &remoteItemTable{items: l.Items}
}

type remoteItemTable struct {
	items []RemoteItem
}

func (t *remoteItemTable) Headers() []string {
	return []string{"ID", "Name", "Kind", "Modified"}
}

func (t *remoteItemTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.items))
	for _, item := range t.items {
		rows = append(rows, []string{item.ID, item.Name, string(item.Kind), item.ModifiedTime})
	}
	return rows
}

func (t *remoteItemTable) EmptyMessage() string {
	return "Folder is empty"
}
