package handlers

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// ResolvedContent is the denormalized view of a reported item. Preview is
// a short excerpt of whatever text the content carries, and OwnerID is the
// account that authored it.
type ResolvedContent struct {
	Exists  bool                `json:"exists"`
	Type    string              `json:"type"`
	Preview string              `json:"preview"`
	OwnerID *primitive.ObjectID `json:"ownerId,omitempty"`
}

// ContentResolver looks up reported content across every store that can
// hold it
type ContentResolver struct {
	PDB  databases.PostDatabase
	GDB  databases.GuideDatabase
	CDB  databases.CommentDatabase
	GCDB databases.GuideCommentDatabase
	UDB  databases.UserDatabase
}

const previewLimit = 120

func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit]) + "..."
}

// Resolve maps a (contentID, contentType) pair to its live content. An
// unknown content type is an error; a well-formed id that matches nothing
// resolves to Exists=false. Comment ids are probed against post comments
// first and guide comments second, since the two live in separate
// collections but share one report content type.
func (cr ContentResolver) Resolve(ctx context.Context, contentID, contentType string) (ResolvedContent, error) {
	resolved := ResolvedContent{Type: contentType}

	id, err := primitive.ObjectIDFromHex(contentID)
	if err != nil {
		// Malformed ids cannot match anything, treat them as absent
		return resolved, nil
	}

	switch contentType {
	case models.ContentTypePost:
		post, err := cr.PDB.FindByID(ctx, id)
		if err != nil || post == nil {
			return resolved, nil
		}
		resolved.Exists = true
		resolved.Preview = truncatePreview(post.Description)
		if resolved.Preview == "" {
			resolved.Preview = truncatePreview(post.GameTitle)
		}
		resolved.OwnerID = &post.AuthorID
		return resolved, nil

	case models.ContentTypeGuide:
		guide, err := cr.GDB.FindByID(ctx, id)
		if err != nil || guide == nil {
			return resolved, nil
		}
		resolved.Exists = true
		resolved.Preview = truncatePreview(guide.Title)
		resolved.OwnerID = &guide.AuthorID
		return resolved, nil

	case models.ContentTypeComment:
		comment, err := cr.CDB.FindByID(ctx, id)
		if err == nil && comment != nil {
			resolved.Exists = true
			resolved.Preview = truncatePreview(comment.Content)
			resolved.OwnerID = &comment.AuthorID
			return resolved, nil
		}
		guideComment, err := cr.GCDB.FindByID(ctx, id)
		if err == nil && guideComment != nil && !guideComment.IsDeleted {
			resolved.Exists = true
			resolved.Preview = truncatePreview(guideComment.Content)
			resolved.OwnerID = &guideComment.AuthorID
			return resolved, nil
		}
		return resolved, nil

	case models.ContentTypeUser:
		user, err := cr.UDB.FindByID(ctx, id)
		if err != nil || user == nil {
			return resolved, nil
		}
		resolved.Exists = true
		resolved.Preview = truncatePreview(user.Name)
		resolved.OwnerID = &user.ID
		return resolved, nil
	}

	return resolved, fmt.Errorf("unknown content type %q", contentType)
}
