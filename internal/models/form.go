package models

import "time"

// Form is an owned, titled list of fields plus the public share token.
type Form struct {
	ID        string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title"`
	Fields    []Field   `json:"fields" bson:"fields"`
	ShareLink string    `json:"shareLink" bson:"shareLink"`
	OwnerID   string    `json:"ownerId" bson:"ownerId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsOwnedBy reports whether userID owns the form.
func (f *Form) IsOwnedBy(userID string) bool {
	return userID != "" && f.OwnerID == userID
}

// FieldFor resolves an answer key to one of the form's current fields.
func (f *Form) FieldFor(key string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Matches(key) {
			return fd, true
		}
	}
	return Field{}, false
}

// PublicForm is the view of a form served on the share link: everything a
// respondent needs and nothing about the owner.
type PublicForm struct {
	ID        string  `json:"_id"`
	Title     string  `json:"title"`
	Fields    []Field `json:"fields"`
	ShareLink string  `json:"shareLink"`
}

func (f *Form) Public() PublicForm {
	return PublicForm{ID: f.ID, Title: f.Title, Fields: f.Fields, ShareLink: f.ShareLink}
}
