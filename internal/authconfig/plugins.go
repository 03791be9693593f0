package authconfig

import (
	"slices"

	"github.com/pharm-courses/auth-service/internal/models"
)

// Идентификаторы плагинов.
const (
	PluginAdmin        = "admin"
	PluginMultiSession = "multi-session"
)

// Plugin именованная возможность, подключаемая к сервису аутентификации.
type Plugin interface {
	ID() string
}

// AdminPlugin административные операции над пользователями.
type AdminPlugin struct {
	DefaultRole string
	AdminRoles  []string
}

// NewAdminPlugin плагин admin с настройками по умолчанию.
func NewAdminPlugin() *AdminPlugin {
	return &AdminPlugin{
		DefaultRole: models.RoleUser,
		AdminRoles:  []string{models.RoleAdmin},
	}
}

// ID идентификатор плагина.
func (p *AdminPlugin) ID() string { return PluginAdmin }

// IsAdmin сообщает, дает ли роль доступ к операциям плагина.
func (p *AdminPlugin) IsAdmin(role string) bool {
	return slices.Contains(p.AdminRoles, role)
}

// MultiSessionPlugin несколько одновременных сессий в одном браузере.
type MultiSessionPlugin struct {
	MaximumSessions int
}

// NewMultiSessionPlugin плагин multi-session с лимитом по умолчанию.
func NewMultiSessionPlugin() *MultiSessionPlugin {
	return &MultiSessionPlugin{MaximumSessions: 5}
}

// ID идентификатор плагина.
func (p *MultiSessionPlugin) ID() string { return PluginMultiSession }

// Plugin ищет плагин по идентификатору.
func (o *Options) Plugin(id string) (Plugin, bool) {
	for _, p := range o.Plugins {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Admin возвращает плагин admin, если он подключен.
func (o *Options) Admin() (*AdminPlugin, bool) {
	p, ok := o.Plugin(PluginAdmin)
	if !ok {
		return nil, false
	}
	admin, ok := p.(*AdminPlugin)
	return admin, ok
}

// MultiSession возвращает плагин multi-session, если он подключен.
func (o *Options) MultiSession() (*MultiSessionPlugin, bool) {
	p, ok := o.Plugin(PluginMultiSession)
	if !ok {
		return nil, false
	}
	ms, ok := p.(*MultiSessionPlugin)
	return ms, ok
}

// DefaultRole роль нового пользователя.
func (o *Options) DefaultRole() string {
	if admin, ok := o.Admin(); ok && admin.DefaultRole != "" {
		return admin.DefaultRole
	}
	return models.RoleUser
}
