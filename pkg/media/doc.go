// Package media is the local image library.
//
// Files are written to a temporary name and renamed into place so a reader
// never sees a partial image. Each stored file gets an attachment row whose
// ID is the local image reference used by the registry and the cache:
//
//	lib, _ := media.NewLibrary("./media", db, log)
//	id, err := lib.Save(ctx, "C1a2B3", jpegBytes, "caption")
//
// Files are named instagram-<id>.<ext>; a numeric suffix is added when the
// name is already taken.
package media
