package entity

// ImageSlot names one of the two image fields of an entry.
type ImageSlot string

const (
	SlotScreenshot ImageSlot = "screenshot"
	SlotThumbnail  ImageSlot = "thumbnail"
)

// ImageSource is the input shape an image arrived in.
type ImageSource string

const (
	SourceNone   ImageSource = ""
	SourceUpload ImageSource = "upload"
	SourceBase64 ImageSource = "base64"
	SourceURL    ImageSource = "url"
)

// ImageInput carries everything submitted for one slot. Upload wins over Value.
// Value is either a data:image base64 string or a remote URL.
type ImageInput struct {
	Upload []byte
	Value  string
}

// Image is decoded image content ready to be stored.
type Image struct {
	Data        []byte
	ContentType string // e.g. image/png
	Extension   string // e.g. .png
}
