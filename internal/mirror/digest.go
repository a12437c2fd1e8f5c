package mirror

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/dl-alexandre/gdmirror/internal/types"
)

// MetadataDigest fingerprints the metadata a record was built from
func MetadataDigest(md types.RemoteItemMetadata) string {
	data, err := json.Marshal(md)
	if err != nil {
		// struct of strings; Marshal cannot fail
		panic(err)
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
