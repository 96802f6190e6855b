package chat

import "context"

// NopAttachmentStore satisfies AttachmentStore for deployments without a
// blob backend; media references are simply forgotten on delete.
type NopAttachmentStore struct{}

func (NopAttachmentStore) Delete(ctx context.Context, ref string) error { return nil }
