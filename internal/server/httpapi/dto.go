package httpapi

import (
	"time"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type birthdayDto struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Day                int       `json:"day"`
	Month              int       `json:"month"`
	Year               *int      `json:"year"`
	Phone              *string   `json:"phone"`
	Note               *string   `json:"note"`
	ContactID          *string   `json:"contactId"`
	NotifyEnabled      bool      `json:"notifyEnabled"`
	NotifyDaysBefore   int       `json:"notifyDaysBefore"`
	NotifyTimeMinutes  int       `json:"notifyTimeMinutes"`
	IsDeleted          bool      `json:"isDeleted"`
	Version            int64     `json:"version"`
	CreatedAtUtc       time.Time `json:"createdAtUtc"`
	UpdatedAtUtc       time.Time `json:"updatedAtUtc"`
	ClientUpdatedAtUtc time.Time `json:"clientUpdatedAtUtc"`
}

type birthdayUpsertRequest struct {
	Name               string    `json:"name"`
	Day                int       `json:"day"`
	Month              int       `json:"month"`
	Year               *int      `json:"year"`
	Phone              *string   `json:"phone"`
	Note               *string   `json:"note"`
	ContactID          *string   `json:"contactId"`
	NotifyEnabled      bool      `json:"notifyEnabled"`
	NotifyDaysBefore   int       `json:"notifyDaysBefore"`
	NotifyTimeMinutes  int       `json:"notifyTimeMinutes"`
	ClientUpdatedAtUtc time.Time `json:"clientUpdatedAtUtc"`
}

// birthdayChangeDto mirrors the offline-sync wire format: optional fields are
// pointers so an omitted field is distinguishable from a sent zero value.
type birthdayChangeDto struct {
	ID                 string    `json:"id"`
	Name               *string   `json:"name"`
	Day                *int      `json:"day"`
	Month              *int      `json:"month"`
	Year               *int      `json:"year"`
	Phone              *string   `json:"phone"`
	Note               *string   `json:"note"`
	ContactID          *string   `json:"contactId"`
	NotifyEnabled      *bool     `json:"notifyEnabled"`
	NotifyDaysBefore   *int      `json:"notifyDaysBefore"`
	NotifyTimeMinutes  *int      `json:"notifyTimeMinutes"`
	IsDeleted          bool      `json:"isDeleted"`
	ClientUpdatedAtUtc time.Time `json:"clientUpdatedAtUtc"`
}

type syncRequest struct {
	LastSyncAtUtc *time.Time          `json:"lastSyncAtUtc"`
	Changes       []birthdayChangeDto `json:"changes"`
}

type syncResponse struct {
	ServerTimeUtc time.Time     `json:"serverTimeUtc"`
	Upserts       []birthdayDto `json:"upserts"`
	Deletes       []string      `json:"deletes"`
}

func toBirthdayDto(b *models.Birthday) birthdayDto {
	return birthdayDto{
		ID:                 b.ID,
		Name:               b.Name,
		Day:                b.Day,
		Month:              b.Month,
		Year:               b.Year,
		Phone:              b.Phone,
		Note:               b.Note,
		ContactID:          b.ContactID,
		NotifyEnabled:      b.NotifyEnabled,
		NotifyDaysBefore:   b.NotifyDaysBefore,
		NotifyTimeMinutes:  b.NotifyTimeMinutes,
		IsDeleted:          b.IsDeleted,
		Version:            b.Version,
		CreatedAtUtc:       b.CreatedAtUtc,
		UpdatedAtUtc:       b.UpdatedAtUtc,
		ClientUpdatedAtUtc: b.ClientUpdatedAtUtc,
	}
}

func toBirthdayDtos(items []*models.Birthday) []birthdayDto {
	result := make([]birthdayDto, 0, len(items))
	for _, b := range items {
		result = append(result, toBirthdayDto(b))
	}
	return result
}

func (r *birthdayUpsertRequest) toUpsert() *services.BirthdayUpsert {
	return &services.BirthdayUpsert{
		Name:               r.Name,
		Day:                r.Day,
		Month:              r.Month,
		Year:               r.Year,
		Phone:              r.Phone,
		Note:               r.Note,
		ContactID:          r.ContactID,
		NotifyEnabled:      r.NotifyEnabled,
		NotifyDaysBefore:   r.NotifyDaysBefore,
		NotifyTimeMinutes:  r.NotifyTimeMinutes,
		ClientUpdatedAtUtc: r.ClientUpdatedAtUtc,
	}
}

func (c *birthdayChangeDto) toChange() *services.BirthdayChange {
	return &services.BirthdayChange{
		ID:                 c.ID,
		Name:               c.Name,
		Day:                c.Day,
		Month:              c.Month,
		Year:               c.Year,
		Phone:              c.Phone,
		Note:               c.Note,
		ContactID:          c.ContactID,
		NotifyEnabled:      c.NotifyEnabled,
		NotifyDaysBefore:   c.NotifyDaysBefore,
		NotifyTimeMinutes:  c.NotifyTimeMinutes,
		IsDeleted:          c.IsDeleted,
		ClientUpdatedAtUtc: c.ClientUpdatedAtUtc,
	}
}
