package gallery

import (
	"context"
	"fmt"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// ViewKind names a grid view.
type ViewKind string

const (
	ViewAll   ViewKind = "all"
	ViewLiked ViewKind = "liked"
)

// ParseViewKind validates a view name. Empty means ViewAll.
func ParseViewKind(s string) (ViewKind, error) {
	switch ViewKind(s) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewLiked:
		return ViewLiked, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// View is a grid over the library with its own selection. It is also the
// photo source of a viewer opened from that grid.
type View struct {
	kind      ViewKind
	library   *Library
	selection *Selection
}

// NewView creates a view of the given kind.
func NewView(kind ViewKind, library *Library) *View {
	return &View{
		kind:      kind,
		library:   library,
		selection: NewSelection(),
	}
}

// Kind returns the view kind.
func (v *View) Kind() ViewKind {
	return v.kind
}

// Selection returns the view's selection state.
func (v *View) Selection() *Selection {
	return v.selection
}

// Photos returns the photos shown by the view.
func (v *View) Photos(ctx context.Context) ([]models.Photo, error) {
	if v.kind == ViewLiked {
		return v.library.Liked(ctx)
	}
	return v.library.Photos(ctx)
}

// Delete deletes a photo from the library.
func (v *View) Delete(ctx context.Context, id string) error {
	return v.library.Delete(ctx, id)
}

// ToggleLike flips the liked flag of a photo.
func (v *View) ToggleLike(ctx context.Context, id string) (bool, error) {
	return v.library.ToggleLike(ctx, id)
}

// DeleteSelected deletes the selected photos.
func (v *View) DeleteSelected(ctx context.Context) ([]string, error) {
	return v.selection.DeleteSelected(ctx, v.library)
}

// Prune drops selected ids that have left the view.
func (v *View) Prune(ctx context.Context) error {
	photos, err := v.Photos(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(photos))
	for i := range photos {
		ids[i] = photos[i].ID
	}
	v.selection.Retain(ids)
	return nil
}
