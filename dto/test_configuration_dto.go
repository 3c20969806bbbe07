package dto

import (
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
)

type TestConfigurationDto struct {
	Id                  string               `json:"id"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	ConnectionProfile   ConnectionProfileDto `json:"connection_profile"`
	TargetNode          string               `json:"target_node"`
	VmDefaults          GuestDefaultsDto     `json:"vm_defaults"`
	LxcDefaults         GuestDefaultsDto     `json:"lxc_defaults"`
	SelectedCases       []string             `json:"selected_cases"`
	DestructiveAllowed  bool                 `json:"destructive_allowed"`
	CleanupOnCompletion bool                 `json:"cleanup_on_completion"`
	Recurrence          *RecurrenceRuleDto   `json:"recurrence,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

type ConnectionProfileDto struct {
	ProfileId string `json:"profile_id"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Realm     string `json:"realm"`
	VerifySsl bool   `json:"verify_ssl"`
}

type GuestDefaultsDto struct {
	IdRangeStart  int    `json:"id_range_start"`
	IdRangeEnd    int    `json:"id_range_end"`
	Image         string `json:"image,omitempty"`
	RamMb         int    `json:"ram_mb"`
	CpuCores      int    `json:"cpu_cores"`
	DiskGb        int    `json:"disk_gb"`
	StoragePool   string `json:"storage_pool,omitempty"`
	NetworkBridge string `json:"network_bridge,omitempty"`
	VlanTag       *int   `json:"vlan_tag,omitempty"`
	Unprivileged  bool   `json:"unprivileged,omitempty"`
}

type RecurrenceRuleDto struct {
	CronExpr string    `json:"cron_expr"`
	AnchorAt time.Time `json:"anchor_at"`
}

func AdaptTestConfigurationDto(config models.TestConfiguration) TestConfigurationDto {
	dto := TestConfigurationDto{
		Id:          config.Id,
		Name:        config.Name,
		Description: config.Description,
		ConnectionProfile: ConnectionProfileDto{
			ProfileId: config.ConnectionProfile.ProfileId,
			Host:      config.ConnectionProfile.Host,
			Port:      config.ConnectionProfile.Port,
			User:      config.ConnectionProfile.User,
			Realm:     config.ConnectionProfile.Realm,
			VerifySsl: config.ConnectionProfile.VerifySsl,
		},
		TargetNode:          config.TargetNode,
		VmDefaults:          adaptGuestDefaultsDto(config.VmDefaults),
		LxcDefaults:         adaptGuestDefaultsDto(config.LxcDefaults),
		SelectedCases:       config.SelectedCases,
		DestructiveAllowed:  config.DestructiveAllowed,
		CleanupOnCompletion: config.CleanupOnCompletion,
		CreatedAt:           config.CreatedAt,
		UpdatedAt:           config.UpdatedAt,
	}
	if config.Recurrence != nil {
		dto.Recurrence = &RecurrenceRuleDto{
			CronExpr: config.Recurrence.CronExpr,
			AnchorAt: config.Recurrence.AnchorAt,
		}
	}
	return dto
}

func adaptGuestDefaultsDto(defaults models.GuestDefaults) GuestDefaultsDto {
	return GuestDefaultsDto(defaults)
}

type CreateTestConfigurationBody struct {
	Name                string               `json:"name" binding:"required"`
	Description         string               `json:"description"`
	ConnectionProfile   ConnectionProfileDto `json:"connection_profile" binding:"required"`
	TargetNode          string               `json:"target_node" binding:"required"`
	VmDefaults          GuestDefaultsDto     `json:"vm_defaults"`
	LxcDefaults         GuestDefaultsDto     `json:"lxc_defaults"`
	SelectedCases       []string             `json:"selected_cases" binding:"required"`
	DestructiveAllowed  bool                 `json:"destructive_allowed"`
	CleanupOnCompletion *bool                `json:"cleanup_on_completion"`
	Recurrence          *RecurrenceRuleDto   `json:"recurrence"`
}

func AdaptCreateTestConfigurationInput(body CreateTestConfigurationBody) models.TestConfiguration {
	cleanup := true
	if body.CleanupOnCompletion != nil {
		cleanup = *body.CleanupOnCompletion
	}
	config := models.TestConfiguration{
		Name:        body.Name,
		Description: body.Description,
		ConnectionProfile: models.ConnectionProfile{
			ProfileId: body.ConnectionProfile.ProfileId,
			Host:      body.ConnectionProfile.Host,
			Port:      body.ConnectionProfile.Port,
			User:      body.ConnectionProfile.User,
			Realm:     body.ConnectionProfile.Realm,
			VerifySsl: body.ConnectionProfile.VerifySsl,
		},
		TargetNode:          body.TargetNode,
		VmDefaults:          models.GuestDefaults(body.VmDefaults),
		LxcDefaults:         models.GuestDefaults(body.LxcDefaults),
		SelectedCases:       body.SelectedCases,
		DestructiveAllowed:  body.DestructiveAllowed,
		CleanupOnCompletion: cleanup,
	}
	if body.Recurrence != nil {
		config.Recurrence = &models.RecurrenceRule{
			CronExpr: body.Recurrence.CronExpr,
			AnchorAt: body.Recurrence.AnchorAt,
		}
	}
	return config
}

type UpdateTestConfigurationBody struct {
	Name                *string            `json:"name"`
	Description         *string            `json:"description"`
	SelectedCases       []string           `json:"selected_cases"`
	DestructiveAllowed  *bool              `json:"destructive_allowed"`
	CleanupOnCompletion *bool              `json:"cleanup_on_completion"`
	Recurrence          *RecurrenceRuleDto `json:"recurrence"`
	ClearRecurrence     bool               `json:"clear_recurrence"`
}

func AdaptUpdateTestConfigurationInput(configurationId string,
	body UpdateTestConfigurationBody,
) models.UpdateTestConfigurationInput {
	input := models.UpdateTestConfigurationInput{
		Id:                  configurationId,
		Name:                body.Name,
		Description:         body.Description,
		SelectedCases:       body.SelectedCases,
		DestructiveAllowed:  body.DestructiveAllowed,
		CleanupOnCompletion: body.CleanupOnCompletion,
		ClearRecurrence:     body.ClearRecurrence,
	}
	if body.Recurrence != nil {
		input.SetRecurrence = &models.RecurrenceRule{
			CronExpr: body.Recurrence.CronExpr,
			AnchorAt: body.Recurrence.AnchorAt,
		}
	}
	return input
}
