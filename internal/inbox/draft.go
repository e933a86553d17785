package inbox

import "context"

// GroupDraft is the pending selection of a "create group" interaction
type GroupDraft struct {
	selected []string
	name     string
}

// Toggle adds userID to the selection, or removes it if already selected
func (d *GroupDraft) Toggle(userID string) {
	for i, id := range d.selected {
		if id == userID {
			d.selected = append(d.selected[:i], d.selected[i+1:]...)
			return
		}
	}
	d.selected = append(d.selected, userID)
}

// IsSelected reports whether userID is part of the selection
func (d *GroupDraft) IsSelected(userID string) bool {
	for _, id := range d.selected {
		if id == userID {
			return true
		}
	}
	return false
}

func (d *GroupDraft) SetName(name string) { d.name = name }

func (d *GroupDraft) Name() string { return d.name }

// Selected returns a copy of the selected user IDs in selection order
func (d *GroupDraft) Selected() []string {
	return append([]string(nil), d.selected...)
}

// Cancel discards the draft
func (d *GroupDraft) Cancel() {
	d.selected = nil
	d.name = ""
}

// Submit creates the group. The draft is discarded only on success.
func (d *GroupDraft) Submit(ctx context.Context, b *Builder, currentUserID string) (Redirect, error) {
	redirect, err := b.CreateGroup(ctx, currentUserID, d.Selected(), d.name)
	if err != nil {
		return Redirect{}, err
	}
	d.Cancel()
	return redirect, nil
}
