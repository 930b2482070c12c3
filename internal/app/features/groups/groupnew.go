// internal/app/features/groups/groupnew.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/htmlsanitize"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/app/system/txn"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/groups. The creator joins the new group in
// the same unit of work.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createGroupRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.SubjectCode = strings.TrimSpace(req.SubjectCode)
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}
	for _, f := range [][2]string{
		{"group name", req.Name},
		{"description", req.Description},
		{"guidelines", req.Guidelines},
	} {
		if res := h.Filter.CheckField(f[0], f[1]); !res.Valid {
			jsonutil.Error(w, http.StatusBadRequest, res.Message)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create group")
	defer cancel()

	var created models.Group
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		g, err := groupstore.New(h.DB).Create(ctx, models.Group{
			Name:            req.Name,
			SubjectCode:     req.SubjectCode,
			CourseName:      strings.TrimSpace(req.CourseName),
			Description:     htmlsanitize.PlainText(req.Description),
			YearLevel:       strings.TrimSpace(req.YearLevel),
			MeetingFormat:   req.MeetingFormat,
			PrimaryLanguage: strings.TrimSpace(req.PrimaryLanguage),
			MeetingSchedule: strings.TrimSpace(req.MeetingSchedule),
			Location:        strings.TrimSpace(req.Location),
			Tags:            req.Tags,
			PersonalityTags: req.PersonalityTags,
			Guidelines:      strings.TrimSpace(htmlsanitize.Sanitize(req.Guidelines)),
			CreatorID:       uid,
			TargetHours:     req.TargetHours,
		})
		if err != nil {
			return err
		}
		if err := membershipstore.New(h.DB).Add(ctx, g.ID, uid); err != nil {
			return err
		}
		created = g
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, groupstore.ErrDuplicateGroupName):
		jsonutil.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("database error creating group", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("group created",
		zap.String("group_id", created.ID.Hex()),
		zap.String("creator_id", uid.Hex()))
	jsonutil.Write(w, http.StatusCreated, created)
}
