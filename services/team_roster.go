package services

import (
	"strings"

	"github.com/Dosada05/event-portal/models"
)

// TeamRoster - список полей "участник команды" в форме регистрации.
// Лидер занимает одно место, поэтому полей не больше team_size_max-1,
// и всегда остается хотя бы одно поле.
type TeamRoster struct {
	maxSlots int
	names    []string
}

func NewTeamRoster(event *models.Event) *TeamRoster {
	maxSlots := event.TeamSizeMax - 1
	if maxSlots < 1 {
		maxSlots = 1
	}
	return &TeamRoster{maxSlots: maxSlots, names: []string{""}}
}

// RosterFromNames восстанавливает список из присланных имен, обрезая лишние поля.
func RosterFromNames(event *models.Event, names []string) *TeamRoster {
	r := NewTeamRoster(event)
	if len(names) == 0 {
		return r
	}
	if len(names) > r.maxSlots {
		names = names[:r.maxSlots]
	}
	r.names = append([]string(nil), names...)
	return r
}

func (r *TeamRoster) CanAdd() bool    { return len(r.names) < r.maxSlots }
func (r *TeamRoster) CanRemove() bool { return len(r.names) > 1 }
func (r *TeamRoster) Len() int        { return len(r.names) }
func (r *TeamRoster) MaxSlots() int   { return r.maxSlots }

// Add добавляет пустое поле. Возвращает false, если кнопка "добавить" неактивна.
func (r *TeamRoster) Add() bool {
	if !r.CanAdd() {
		return false
	}
	r.names = append(r.names, "")
	return true
}

// Remove удаляет поле i. Возвращает false, если кнопка "удалить" неактивна или индекс неверен.
func (r *TeamRoster) Remove(i int) bool {
	if !r.CanRemove() || i < 0 || i >= len(r.names) {
		return false
	}
	r.names = append(r.names[:i], r.names[i+1:]...)
	return true
}

func (r *TeamRoster) Set(i int, name string) bool {
	if i < 0 || i >= len(r.names) {
		return false
	}
	r.names[i] = name
	return true
}

// Names возвращает непустые имена участников без пробелов по краям.
func (r *TeamRoster) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
