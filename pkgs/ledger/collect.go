package ledger

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// CollectOwned pages through every object owned by owner. On error it returns
// what was collected so far together with the error, so a caller-imposed
// deadline still yields a usable partial result.
func CollectOwned(ctx context.Context, r Reader, owner string) ([]Object, error) {
	var all []Object
	cursor := ""
	for pages := 0; ; pages++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		page, err := r.GetOwnedObjects(ctx, owner, cursor)
		if err != nil {
			return all, fmt.Errorf("page %d: %w", pages, err)
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" || page.NextCursor == cursor {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// CollectKioskItems lists the items in every kiosk owned by owner. A kiosk
// that fails to load is skipped; the joined error reports every failure.
func CollectKioskItems(ctx context.Context, k KioskReader, owner string) ([]Object, error) {
	kiosks, err := k.GetOwnedContainers(ctx, owner)
	if err != nil && len(kiosks) == 0 {
		return nil, err
	}

	var items []Object
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, id := range kiosks {
		contents, err := k.GetContainerContents(ctx, id)
		items = append(items, contents...)
		if err != nil {
			log.WithError(err).WithField("kiosk", id).Warn("Failed to list kiosk contents")
			errs = append(errs, fmt.Errorf("kiosk %s: %w", id, err))
		}
	}
	return items, errors.Join(errs...)
}
