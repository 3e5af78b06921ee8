package dto

type UploadResponse struct {
	URL         string `json:"url" example:"https://cdn.example.com/orders/2026/10/0192f0c4.jpg"`
	Key         string `json:"key" example:"orders/2026/10/0192f0c4.jpg"`
	Size        int64  `json:"size" example:"482133"`
	ContentType string `json:"content_type" example:"image/jpeg"`
}

type InvalidateCacheRequest struct {
	Prefix string `json:"prefix" validate:"required,min=1,max=100"`
}

func (r InvalidateCacheRequest) Validate() error {
	return GetValidator().Struct(r)
}
