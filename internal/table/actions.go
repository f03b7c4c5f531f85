package table

import (
	"context"
	"fmt"
)

// Row-state fields consulted by the action rules.
const (
	FieldActive         = "Active"
	FieldAssignedUserID = "assignedUserId"
)

// EntityAccount is the entity type that supports claiming.
const EntityAccount = "account"

// ActionKey identifies a row action.
type ActionKey string

const (
	ActionView              ActionKey = "view"
	ActionEdit              ActionKey = "edit"
	ActionAddNote           ActionKey = "add_note"
	ActionAddAttachment     ActionKey = "add_attachment"
	ActionClaimAccount      ActionKey = "claim_account"
	ActionUnclaimAccount    ActionKey = "unclaim_account"
	ActionAssignUser        ActionKey = "assign_user"
	ActionUnassignUser      ActionKey = "unassign_user"
	ActionReactivate        ActionKey = "reactivate"
	ActionDeactivate        ActionKey = "deactivate"
	ActionDelete            ActionKey = "delete"
	ActionDeletePermanently ActionKey = "delete_permanently"
)

// Target is what an action callback receives. Delete-style actions get only
// the ID; every other action also gets the row.
type Target struct {
	Row   Row
	ID    string
	Input map[string]any
}

// ActionFunc handles one dispatched action. Its error is returned to the
// dispatcher's caller unchanged.
type ActionFunc func(ctx context.Context, target Target) error

// Callbacks binds actions to handlers. A nil handler hides its action.
type Callbacks struct {
	OnView              ActionFunc
	OnEdit              ActionFunc
	OnAddNote           ActionFunc
	OnAddAttachment     ActionFunc
	OnClaimAccount      ActionFunc
	OnUnclaimAccount    ActionFunc
	OnAssignUser        ActionFunc
	OnUnassignUser      ActionFunc
	OnReactivate        ActionFunc
	OnDeactivate        ActionFunc
	OnDelete            ActionFunc
	OnDeletePermanently ActionFunc
}

// Action is one entry of a row's action menu.
type Action struct {
	Key      ActionKey `json:"key"`
	Label    string    `json:"label"`
	Icon     string    `json:"icon"`
	Disabled bool      `json:"disabled,omitempty"`
	Danger   bool      `json:"danger,omitempty"`
}

type ruleInput struct {
	row        Row
	roles      RoleSet
	userID     string
	entityType string
}

func (in ruleInput) hasLifecycle() bool { return in.row.Has(FieldActive) }

// inactive means the Active flag is present and explicitly false.
func (in ruleInput) inactive() bool {
	v := in.row.Value(FieldActive)
	return v != nil && !Truthy(v)
}

func (in ruleInput) assigned() bool { return !IsEmpty(in.row.Value(FieldAssignedUserID)) }

type actionDef struct {
	Action
	byID     bool
	handler  func(Callbacks) ActionFunc
	show     func(ruleInput) bool
	disabled func(ruleInput) bool
}

// Menu order is the order of this table.
var actionDefs = []actionDef{
	{
		Action:  Action{Key: ActionView, Label: "View Details", Icon: "visibility"},
		handler: func(c Callbacks) ActionFunc { return c.OnView },
	},
	{
		Action:   Action{Key: ActionEdit, Label: "Edit", Icon: "edit"},
		handler:  func(c Callbacks) ActionFunc { return c.OnEdit },
		disabled: func(in ruleInput) bool { return in.inactive() },
	},
	{
		Action:  Action{Key: ActionAddNote, Label: "Add Note", Icon: "note_add"},
		handler: func(c Callbacks) ActionFunc { return c.OnAddNote },
	},
	{
		Action:  Action{Key: ActionAddAttachment, Label: "Add Attachment", Icon: "attach_file"},
		handler: func(c Callbacks) ActionFunc { return c.OnAddAttachment },
	},
	{
		Action:  Action{Key: ActionClaimAccount, Label: "Claim Account", Icon: "person_add"},
		handler: func(c Callbacks) ActionFunc { return c.OnClaimAccount },
		show: func(in ruleInput) bool {
			return in.entityType == EntityAccount && in.roles.Has(RoleSalesRep) && !in.assigned()
		},
	},
	{
		Action:  Action{Key: ActionUnclaimAccount, Label: "Unclaim Account", Icon: "person_remove"},
		handler: func(c Callbacks) ActionFunc { return c.OnUnclaimAccount },
		show: func(in ruleInput) bool {
			if in.entityType != EntityAccount || !in.roles.Has(RoleSalesRep) || !in.assigned() {
				return false
			}
			return in.userID == "" || Stringify(in.row.Value(FieldAssignedUserID)) == in.userID
		},
	},
	{
		Action:  Action{Key: ActionAssignUser, Label: "Assign User", Icon: "assignment_ind"},
		handler: func(c Callbacks) ActionFunc { return c.OnAssignUser },
		show:    func(in ruleInput) bool { return in.roles.Has(RoleCLevel) && !in.assigned() },
	},
	{
		Action:  Action{Key: ActionUnassignUser, Label: "Unassign User", Icon: "person_off"},
		handler: func(c Callbacks) ActionFunc { return c.OnUnassignUser },
		show:    func(in ruleInput) bool { return in.roles.Has(RoleCLevel) && in.assigned() },
	},
	{
		Action:  Action{Key: ActionReactivate, Label: "Reactivate", Icon: "restore"},
		handler: func(c Callbacks) ActionFunc { return c.OnReactivate },
		show:    func(in ruleInput) bool { return in.inactive() },
	},
	{
		Action:  Action{Key: ActionDeactivate, Label: "Deactivate", Icon: "block", Danger: true},
		handler: func(c Callbacks) ActionFunc { return c.OnDeactivate },
		show:    func(in ruleInput) bool { return in.hasLifecycle() && !in.inactive() },
	},
	{
		Action:  Action{Key: ActionDelete, Label: "Delete", Icon: "delete", Danger: true},
		byID:    true,
		handler: func(c Callbacks) ActionFunc { return c.OnDelete },
		show:    func(in ruleInput) bool { return !in.hasLifecycle() },
	},
	{
		Action:  Action{Key: ActionDeletePermanently, Label: "Delete Permanently", Icon: "delete_forever", Danger: true},
		byID:    true,
		handler: func(c Callbacks) ActionFunc { return c.OnDeletePermanently },
		show:    func(in ruleInput) bool { return in.inactive() && in.roles.Has(RoleCLevel) },
	},
}

// VisibleActions computes the ordered action menu for a row. A nil auth is
// treated as a user without roles.
func VisibleActions(row Row, auth AuthContext, entityType string, cb Callbacks) []Action {
	in := newRuleInput(row, auth, entityType)
	var out []Action
	for _, def := range actionDefs {
		if !def.visible(in, cb) {
			continue
		}
		a := def.Action
		if def.disabled != nil {
			a.Disabled = def.disabled(in)
		}
		out = append(out, a)
	}
	return out
}

func newRuleInput(row Row, auth AuthContext, entityType string) ruleInput {
	in := ruleInput{row: row, roles: RoleSet{}, entityType: entityType}
	if auth != nil {
		in.userID = auth.CurrentUserID()
		if roles := auth.CurrentUserRoles(); roles != nil {
			in.roles = roles
		}
	}
	return in
}

func (d actionDef) visible(in ruleInput, cb Callbacks) bool {
	if d.handler(cb) == nil {
		return false
	}
	return d.show == nil || d.show(in)
}

// Router computes and dispatches row actions for one entity type.
type Router struct {
	entityType string
	idField    string
	callbacks  Callbacks
	auth       AuthContext
}

// NewRouter binds callbacks and the current user to an entity type.
func NewRouter(entityType, idField string, callbacks Callbacks, auth AuthContext) *Router {
	return &Router{entityType: entityType, idField: idField, callbacks: callbacks, auth: auth}
}

// Actions returns the visible actions for row.
func (r *Router) Actions(row Row) []Action {
	return VisibleActions(row, r.auth, r.entityType, r.callbacks)
}

// Dispatch re-evaluates the rules for row and invokes the chosen action's
// callback. The callback runs once: no retry, no state change on failure.
func (r *Router) Dispatch(ctx context.Context, row Row, key ActionKey, input map[string]any) error {
	in := newRuleInput(row, r.auth, r.entityType)
	for _, def := range actionDefs {
		if def.Key != key {
			continue
		}
		if !def.visible(in, r.callbacks) {
			return fmt.Errorf("%w: %s", ErrActionUnavailable, key)
		}
		if def.disabled != nil && def.disabled(in) {
			return fmt.Errorf("%w: %s", ErrActionDisabled, key)
		}
		target := Target{ID: row.ID(r.idField), Input: input}
		if !def.byID {
			target.Row = row
		}
		return def.handler(r.callbacks)(ctx, target)
	}
	return fmt.Errorf("%w: %s", ErrActionUnavailable, key)
}
