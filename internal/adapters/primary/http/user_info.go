package http

import (
	"time"

	"github.com/lorrc/helpdesk/internal/core/domain"
)

// UserDTO represents a directory user in responses.
type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toUserDTOs(users []*domain.User) []UserDTO {
	response := make([]UserDTO, 0, len(users))
	for _, u := range users {
		response = append(response, toUserDTO(u))
	}
	return response
}

// UserInfoDTO is the lightweight reference shown to employees browsing specialists.
type UserInfoDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserInfoDTOs(users []*domain.User) []UserInfoDTO {
	response := make([]UserInfoDTO, 0, len(users))
	for _, u := range users {
		info := u.Info()
		response = append(response, UserInfoDTO{
			ID:    info.ID.String(),
			Name:  info.Name,
			Email: info.Email,
		})
	}
	return response
}

// QueryTypeDTO represents a catalog entry in responses.
type QueryTypeDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

func toQueryTypeDTOs(types []*domain.QueryType) []QueryTypeDTO {
	response := make([]QueryTypeDTO, 0, len(types))
	for _, qt := range types {
		response = append(response, toQueryTypeDTO(qt))
	}
	return response
}

func toQueryTypeDTO(qt *domain.QueryType) QueryTypeDTO {
	return QueryTypeDTO{ID: qt.ID, Name: qt.Name, IsActive: qt.IsActive}
}
