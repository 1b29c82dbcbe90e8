package handlers

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/service"
)

// maxChildren caps the child rows read from one registration form
const maxChildren = 50

// RecordHandlers serves the console pages of every record type
type RecordHandlers struct {
	pages []interface{ Register(mux *http.ServeMux) }
}

// NewRecordHandlers creates the console pages over the record services
func NewRecordHandlers(records *service.Records, templates *template.Template, middleware *Middleware, logger *zap.Logger) *RecordHandlers {
	return &RecordHandlers{pages: []interface{ Register(mux *http.ServeMux) }{
		newRecordHandler(records.Baptisms, newRecord[models.Baptism], formHooks[*models.Baptism]{}, templates, middleware, logger),
		newRecordHandler(records.Burials, newRecord[models.Burial], formHooks[*models.Burial]{}, templates, middleware, logger),
		newRecordHandler(records.Marriages, newRecord[models.Marriage], formHooks[*models.Marriage]{}, templates, middleware, logger),
		newRecordHandler(records.ChoirMembers, newRecord[models.ChoirMember], formHooks[*models.ChoirMember]{}, templates, middleware, logger),
		newRecordHandler(records.YouthMembers, newRecord[models.YouthMember], formHooks[*models.YouthMember]{}, templates, middleware, logger),
		newRecordHandler(records.ZonalLeaders, newRecord[models.ZonalLeader], formHooks[*models.ZonalLeader]{}, templates, middleware, logger),
		newRecordHandler(records.UnitLeaders, newRecord[models.UnitLeader], unitLeaderHooks(records.UnitLeaders), templates, middleware, logger),
		newRecordHandler(records.ParishCommittee, newRecord[models.ParishCommitteeMember], formHooks[*models.ParishCommitteeMember]{}, templates, middleware, logger),
		newRecordHandler(records.SundaySchoolTeachers, newRecord[models.SundaySchoolTeacher], formHooks[*models.SundaySchoolTeacher]{}, templates, middleware, logger),
		newRecordHandler(records.MemberRegistrations, newRecord[models.MemberRegistration], registrationHooks(), templates, middleware, logger),
	}}
}

// Register adds every record page to mux
func (h *RecordHandlers) Register(mux *http.ServeMux) {
	for _, p := range h.pages {
		p.Register(mux)
	}
}

func newRecord[T any]() *T {
	return new(T)
}

// unitLeaderHooks show the zonal leader of the chosen zone and keep the
// form from saving until one is found.
func unitLeaderHooks(units *service.UnitLeaderService) formHooks[*models.UnitLeader] {
	return formHooks[*models.UnitLeader]{
		act: func(action string, _ *models.UnitLeader) bool {
			return action == "resolve"
		},
		prepare: func(ctx context.Context, u *models.UnitLeader, view *RecordFormViewData) error {
			resolution, err := units.Resolve(ctx, u.ZoneNumber)
			if err != nil {
				return err
			}
			view.Zone = &ZoneView{Message: resolution.Message(), Found: resolution.CanSubmit()}
			view.SubmitDisabled = !resolution.CanSubmit()
			u.ZonalLeaderName = ""
			if resolution.Leader != nil {
				u.ZonalLeaderName = resolution.Leader.FullName
			}
			return nil
		},
	}
}

// registrationHooks edit the children of a member registration as form rows
func registrationHooks() formHooks[*models.MemberRegistration] {
	return formHooks[*models.MemberRegistration]{
		bind: func(form url.Values, m *models.MemberRegistration, saving bool) {
			m.Children = parseChildren(form, saving)
		},
		act: func(action string, m *models.MemberRegistration) bool {
			if action == "add_child" {
				if len(m.Children) < maxChildren {
					m.Children = append(m.Children, models.Child{})
				}
				return true
			}
			if index, ok := strings.CutPrefix(action, "remove_child:"); ok {
				i, err := strconv.Atoi(index)
				if err != nil {
					return false
				}
				if i >= 0 && i < len(m.Children) {
					m.Children = append(m.Children[:i], m.Children[i+1:]...)
				}
				return true
			}
			return false
		},
		prepare: func(_ context.Context, m *models.MemberRegistration, view *RecordFormViewData) error {
			view.ChildrenEnabled = true
			view.GenderOptions = models.Options(models.OptionGender)
			view.Children = make([]ChildRow, len(m.Children))
			for i, c := range m.Children {
				view.Children[i] = ChildRow{Index: i, Child: c}
			}
			return nil
		},
		detail: func(m *models.MemberRegistration, view *RecordViewData) {
			view.ChildrenEnabled = true
			view.Children = m.Children
		},
	}
}

// parseChildren reads the children-{i}-{field} rows of a registration form.
// Rows left completely blank are dropped when saving.
func parseChildren(form url.Values, saving bool) []models.Child {
	count, _ := strconv.Atoi(form.Get("children_count"))
	count = max(0, min(count, maxChildren))

	children := make([]models.Child, 0, count)
	for i := 0; i < count; i++ {
		field := func(name string) string {
			return strings.TrimSpace(form.Get(fmt.Sprintf("children-%d-%s", i, name)))
		}
		c := models.Child{
			ID:            field("id"),
			FullName:      field("full_name"),
			Gender:        field("gender"),
			DateOfBirth:   field("date_of_birth"),
			IsBaptized:    checked(field("is_baptized")),
			IsConfirmed:   checked(field("is_confirmed")),
			IsCommunicant: checked(field("is_communicant")),
		}
		if saving && c.FullName == "" && c.Gender == "" && c.DateOfBirth == "" {
			continue
		}
		children = append(children, c)
	}
	return children
}
