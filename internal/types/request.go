package types

// RequestType classifies a Drive request for logging and error context
type RequestType string

const (
	RequestTypeListOrSearch   RequestType = "list_or_search"
	RequestTypeGetByID        RequestType = "get_by_id"
	RequestTypeDownload       RequestType = "download"
	RequestTypeExport         RequestType = "export"
	RequestTypeMutation       RequestType = "mutation"
	RequestTypePermissionRead RequestType = "permission_read"
)

// RequestContext carries tracing data for one logical Drive operation
type RequestContext struct {
	Profile           string      `json:"profile"`
	DriveID           string      `json:"driveId,omitempty"`
	InvolvedFileIDs   []string    `json:"involvedFileIds"`
	InvolvedParentIDs []string    `json:"involvedParentIds"`
	RequestType       RequestType `json:"requestType"`
	TraceID           string      `json:"traceId"`
}
