package dto

// ClickRequest carries the decoded query parameters of a click tracking hit
type ClickRequest struct {
	BannerUID      string `json:"banner_id" validate:"required,max=64"`
	RecipientEmail string `json:"email" validate:"omitempty,email"`
}

// ViewRequest carries the decoded query parameters of a view pixel hit
type ViewRequest struct {
	BannerUID      string `json:"banner_id" validate:"omitempty,max=64"`
	RecipientEmail string `json:"email" validate:"omitempty,email"`
}

// ClickResolution is the outcome of resolving a tracked click. RedirectURL is
// always populated; the tracking endpoint never answers with anything but a
// redirect.
type ClickResolution struct {
	RedirectURL string `json:"redirect_url"`
	Counted     bool   `json:"counted"`
	Eligibility string `json:"eligibility,omitempty"`
}

// RewriteRequest asks for a banner's HTML to be prepared for one recipient
type RewriteRequest struct {
	BannerUID      string `json:"banner_id" validate:"required,max=64"`
	RecipientEmail string `json:"recipient_email" validate:"omitempty,email"`
	IncludePixel   *bool  `json:"include_pixel,omitempty"`
}

// RewriteResponse carries the tracked HTML. AlreadyTracked reports that the
// stored HTML had been rewritten before and was returned as is.
type RewriteResponse struct {
	BannerUID      string `json:"banner_id"`
	HTML           string `json:"html"`
	AlreadyTracked bool   `json:"already_tracked"`
}
