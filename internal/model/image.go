package model

// Image is a row of the `images` table. ImageID is the storage key of the
// uploaded file and ImageURL the address it is served from. An image is
// referenced by at most one user (profile picture) or checkout (passport).
type Image struct {
	ID       uint64 `json:"id"`        // images.id
	ImageID  string `json:"image_id"`  // images.image_id
	ImageURL string `json:"image_url"` // images.image_url
}

// Upload is an accepted, size-checked image file read from a multipart
// request, ready to be handed to the image store.
type Upload struct {
	Filename    string // original client file name
	ContentType string // sniffed MIME type
	Data        []byte // file contents
}
