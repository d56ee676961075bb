package dto

// RegionResourceType is the JSON:API type of region resources
const RegionResourceType = "regions"

// RegionAttributes are the public attributes of a region. AdminNotes is "" when unset.
type RegionAttributes struct {
	Name         string `json:"name" example:"Central Texas"`
	Abbreviation string `json:"abbreviation" example:"CTX"`
	TimeZone     string `json:"time_zone" example:"America/Chicago"`
	AdminNotes   string `json:"admin_notes" example:""`
	Archived     bool   `json:"archived" example:"false"`
	Test         bool   `json:"test" example:"false"`
}

// RegionResource is a JSON:API resource object
type RegionResource struct {
	ID         string           `json:"id" example:"2f1b7c7e-4c8a-4f8e-9a53-2b0f1c7d9e10"`
	Type       string           `json:"type" example:"regions"`
	Attributes RegionAttributes `json:"attributes"`
}

type RegionDocument struct {
	Data RegionResource `json:"data"`
}

type RegionListDocument struct {
	Data []RegionResource `json:"data"`
}

// RegionRequest is the flat body of create and update. Nil fields were not supplied.
type RegionRequest struct {
	Name         *string `json:"name,omitempty" form:"name" validate:"omitempty,max=255"`
	Abbreviation *string `json:"abbreviation,omitempty" form:"abbreviation" validate:"omitempty,max=16"`
	TimeZone     *string `json:"time_zone,omitempty" form:"time_zone" validate:"omitempty,max=64"`
	AdminNotes   *string `json:"admin_notes,omitempty" form:"admin_notes"`
	Archived     *bool   `json:"archived,omitempty" form:"archived"`
	Test         *bool   `json:"test,omitempty" form:"test"`
}

// RegionData is the data member of a JSON:API request document
type RegionData struct {
	Type       string         `json:"type,omitempty"`
	Attributes *RegionRequest `json:"attributes"`
}

// RegionBody is a JSON region body: flat, nested under "region", or a JSON:API document
type RegionBody struct {
	RegionRequest
	Region *RegionRequest `json:"region,omitempty"`
	Data   *RegionData    `json:"data,omitempty"`
}

// Attributes picks the supplied form of the body
func (b *RegionBody) Attributes() *RegionRequest {
	switch {
	case b.Data != nil && b.Data.Attributes != nil:
		return b.Data.Attributes
	case b.Data != nil:
		return &RegionRequest{}
	case b.Region != nil:
		return b.Region
	}
	return &b.RegionRequest
}

// JSONAPIError is one entry of a JSON:API errors document
type JSONAPIError struct {
	Status string              `json:"status" example:"422"`
	Code   string              `json:"code,omitempty" example:"blank"`
	Title  string              `json:"title" example:"Invalid attribute"`
	Detail string              `json:"detail" example:"name can't be blank"`
	Source *JSONAPIErrorSource `json:"source,omitempty"`
}

type JSONAPIErrorSource struct {
	Pointer string `json:"pointer" example:"/data/attributes/name"`
}

type JSONAPIErrorDocument struct {
	Errors []JSONAPIError `json:"errors"`
}
