package authconfig

import "github.com/pharm-courses/auth-service/internal/models"

// FieldType тип дополнительного поля пользователя.
type FieldType string

// FieldTypeString строковое поле.
const FieldTypeString FieldType = "string"

// FieldSpec описание дополнительного поля.
type FieldSpec struct {
	Type     FieldType
	Required bool
}

// Имена дополнительных полей пользователя.
const (
	FieldPhone      = "phone"
	FieldRegionCity = "region_city"
	FieldEducation  = "education"
	FieldSpecialty  = "specialty"
	FieldWorkplace  = "workplace"
	FieldJobTitle   = "jobTitle"
)

// AdditionalFields шесть необязательных строковых полей профиля.
func AdditionalFields() map[string]FieldSpec {
	return map[string]FieldSpec{
		FieldPhone:      {Type: FieldTypeString},
		FieldRegionCity: {Type: FieldTypeString},
		FieldEducation:  {Type: FieldTypeString},
		FieldSpecialty:  {Type: FieldTypeString},
		FieldWorkplace:  {Type: FieldTypeString},
		FieldJobTitle:   {Type: FieldTypeString},
	}
}

// ProfileFrom переносит в профиль только объявленные поля, остальные ключи отбрасываются.
func (o *Options) ProfileFrom(fields map[string]string) models.Profile {
	var p models.Profile
	for name, value := range fields {
		if _, ok := o.User.AdditionalFields[name]; !ok {
			continue
		}
		switch name {
		case FieldPhone:
			p.Phone = value
		case FieldRegionCity:
			p.RegionCity = value
		case FieldEducation:
			p.Education = value
		case FieldSpecialty:
			p.Specialty = value
		case FieldWorkplace:
			p.Workplace = value
		case FieldJobTitle:
			p.JobTitle = value
		}
	}
	return p
}
