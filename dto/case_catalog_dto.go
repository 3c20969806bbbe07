package dto

import (
	"github.com/hypercheck/hypercheck-backend/models"
)

type CaseDefinitionDto struct {
	Id          string `json:"id"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive"`
	Slow        bool   `json:"slow"`
}

func AdaptCaseDefinitionDto(def models.CaseDefinition) CaseDefinitionDto {
	return CaseDefinitionDto{
		Id:          def.Id,
		Category:    def.Category,
		Name:        def.Name,
		Description: def.Description,
		Destructive: def.Destructive,
		Slow:        def.Slow,
	}
}
