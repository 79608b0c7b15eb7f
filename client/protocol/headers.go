package protocol

// Header names used by the tus protocol. Lookups go through
// [net/http.Header], so matching is case-insensitive.
const (
	HeaderUploadLength         = "Upload-Length"
	HeaderUploadOffset         = "Upload-Offset"
	HeaderUploadMetadata       = "Upload-Metadata"
	HeaderUploadChecksum       = "Upload-Checksum"
	HeaderContentLength        = "Content-Length"
	HeaderContentType          = "Content-Type"
	HeaderLocation             = "Location"
	HeaderTusResumable         = "Tus-Resumable"
	HeaderTusVersion           = "Tus-Version"
	HeaderTusExtension         = "Tus-Extension"
	HeaderTusMaxSize           = "Tus-Max-Size"
	HeaderTusChecksumAlgorithm = "Tus-Checksum-Algorithm"
)

const (
	// Version is the protocol version sent in Tus-Resumable.
	Version = "1.0.0"

	// ContentTypeOffsetOctetStream is the required Content-Type for PATCH bodies.
	ContentTypeOffsetOctetStream = "application/offset+octet-stream"

	// ChecksumAlgorithm is the only algorithm used for Upload-Checksum.
	ChecksumAlgorithm = "sha1"
)
