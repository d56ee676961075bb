// Package dto contains Data Transfer Objects for API request and response structures
package dto

type AdminSessionDTO struct {
	AccessToken  string `json:"access_token" example:"jwt"`
	RefreshToken string `json:"refresh_token" example:"jwt"`
	ExpiresIn    int    `json:"expires_in" example:"43200"`
	TokenType    string `json:"token_type" example:"Bearer"`
	CreatedAt    string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type AdminCaptchaInitResponse struct {
	ChallengeID       string `json:"challenge_id"`
	MasterImageBase64 string `json:"master_image_base64"`
	ThumbImageBase64  string `json:"thumb_image_base64"`
}

type AdminLoginRequest struct {
	ChallengeID string  `json:"challenge_id" validate:"required"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,max=128"`
	UserAngle   float64 `json:"user_angle" validate:"gte=0,lte=360"`
}

type AdminLoginResponse struct {
	Admin   UserDTO         `json:"admin"`
	Session AdminSessionDTO `json:"session"`
}

type AdminRefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TagRequest is the body of tag create and update. Nil fields were not supplied.
type TagRequest struct {
	Name        *string `json:"name,omitempty" form:"name" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" form:"description"`
	TagType     *string `json:"tag_type,omitempty" form:"tag_type"`
	TagCategory *string `json:"tag_category,omitempty" form:"tag_category"`
}

// Params returns the supplied attributes keyed by column name
func (r *TagRequest) Params() map[string]any {
	params := map[string]any{}
	for key, v := range map[string]*string{
		"name":         r.Name,
		"description":  r.Description,
		"tag_type":     r.TagType,
		"tag_category": r.TagCategory,
	} {
		if v != nil {
			params[key] = *v
		}
	}
	return params
}

// TagBody is a JSON tag body, flat or nested under "tag"
type TagBody struct {
	TagRequest
	Tag *TagRequest `json:"tag,omitempty"`
}

func (b *TagBody) Attributes() *TagRequest {
	if b.Tag != nil {
		return b.Tag
	}
	return &b.TagRequest
}

// TagDTO is the admin view of a tag
type TagDTO struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string `json:"name" example:"jazz"`
	Description string `json:"description,omitempty" example:"Live and recorded jazz"`
	TagType     string `json:"tag_type" example:"topic"`
	TagCategory string `json:"tag_category,omitempty" example:"culture"`
	CreatedAt   string `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   string `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// CalendarDTO is a calendar as listed by scope
type CalendarDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Archived    bool   `json:"archived"`
	Test        bool   `json:"test"`
}
