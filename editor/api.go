// CLAUDE:SUMMARY HTTP surface for the editor: chi routes over the session operation set.
package editor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/atelier/animate"
	"github.com/hazyhaar/atelier/kit"
	"github.com/hazyhaar/atelier/services"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// statusFor maps sentinel errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrProjectNotFound),
		errors.Is(err, ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStale), errors.Is(err, ErrNothingCopied):
		return http.StatusConflict
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrPreviewUnavailable),
		errors.Is(err, ErrGenerateDisabled):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Routes builds the editor API. Callers mount it under /api and add CORS
// and shield middleware around it.
func (svc *Service) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := svc.ListProjects(r.Context())
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, list)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			p, err := svc.CreateProject(r.Context(), req.Name)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 201, p)
		})

		r.Get("/{projectID}", func(w http.ResponseWriter, r *http.Request) {
			p, err := svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, p)
		})

		r.Delete("/{projectID}", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "deleted"})
		})

		r.Post("/{projectID}/sessions", func(w http.ResponseWriter, r *http.Request) {
			projectID := chi.URLParam(r, "projectID")
			ctx := kit.WithProjectID(r.Context(), projectID)
			s, err := svc.OpenSession(ctx, projectID)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 201, s.State())
		})
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		// Resolve the session once per request.
		withSession := func(fn func(w http.ResponseWriter, r *http.Request, s *Session)) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				s, err := svc.Session(chi.URLParam(r, "sessionID"))
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				r = r.WithContext(kit.WithSessionID(r.Context(), s.ID))
				fn(w, r, s)
			}
		}

		r.Get("/", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			writeJSON(w, 200, s.State())
		}))

		r.Delete("/", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			if err := svc.CloseSession(s.ID); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "closed"})
		}))

		r.Get("/feed", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			s.Feed().ServeWS(w, r)
		}))

		r.Post("/page", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			var req struct {
				PageID string `json:"pageId"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			if err := s.OpenPage(r.Context(), req.PageID); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, s.State())
		}))

		r.Get("/components", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			writeJSON(w, 200, s.Components())
		}))

		r.Post("/components", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			var req struct {
				Type  string `json:"type"`
				Index int    `json:"index"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			id, err := s.InsertComponent(r.Context(), req.Type, req.Index)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 201, map[string]string{"componentId": id})
		}))

		r.Post("/components/drop", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			var req struct {
				Type     string  `json:"type"`
				PointerY float64 `json:"pointerY"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			id, err := s.DropComponent(r.Context(), req.Type, req.PointerY)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 201, map[string]string{"componentId": id})
		}))

		r.Post("/drop-target", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			var req struct {
				PointerY float64 `json:"pointerY"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			target, err := s.DropTarget(r.Context(), req.PointerY)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, target)
		}))

		r.Delete("/components/{componentID}", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			if err := s.DeleteComponent(r.Context(), chi.URLParam(r, "componentID")); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, s.State())
		}))

		r.Post("/components/{componentID}/duplicate", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			if err := s.DuplicateComponent(r.Context(), chi.URLParam(r, "componentID")); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, s.State())
		}))

		r.Post("/components/{componentID}/copy", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			copied := s.CopyComponent(chi.URLParam(r, "componentID"))
			writeJSON(w, 200, map[string]bool{"copied": copied})
		}))

		r.Post("/paste", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			if err := s.PasteComponent(r.Context()); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, s.State())
		}))

		r.Post("/styles", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			var req struct {
				ComponentID string            `json:"componentId"`
				Props       map[string]string `json:"props"`
				Breakpoint  string            `json:"breakpoint"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			if err := s.ApplyStyles(req.ComponentID, req.Props, req.Breakpoint); err != nil {
				writeError(w, 400, err)
				return
			}
			writeJSON(w, 202, map[string]string{"status": "queued"})
		}))

		r.Post("/undo", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			writeJSON(w, 200, s.Undo(r.Context()))
		}))

		r.Post("/redo", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			writeJSON(w, 200, s.Redo(r.Context()))
		}))

		r.Post("/select", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			var req struct {
				ComponentID string `json:"componentId"`
				Kind        string `json:"kind"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			sel, err := s.Select(r.Context(), req.ComponentID, req.Kind)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, sel)
		}))

		r.Post("/save", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			if err := s.Save(r.Context()); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "saved"})
		}))

		r.Route("/revisions", func(r chi.Router) {
			r.Get("/", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				list, err := s.ListRevisions(r.Context())
				if err != nil {
					writeError(w, 500, err)
					return
				}
				writeJSON(w, 200, list)
			}))

			r.Post("/", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				var req struct {
					Label string `json:"label"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					writeError(w, 400, err)
					return
				}
				rev, err := s.SaveRevision(r.Context(), req.Label)
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, 201, rev)
			}))

			r.Post("/{revisionID}/restore", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				if err := s.RestoreRevision(r.Context(), chi.URLParam(r, "revisionID")); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, 200, s.State())
			}))
		})

		r.Get("/history", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			list, err := s.EditHistory(r.Context(), limit)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, list)
		}))

		r.Get("/export/zip", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			data, err := s.ExportZip(r.Context())
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.Header().Set("Content-Type", "application/zip")
			w.Header().Set("Content-Disposition", `attachment; filename="`+s.ProjectID+`.zip"`)
			w.Write(data)
		}))

		r.Get("/export/pdf", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			data, err := s.ExportPDF(r.Context())
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="`+s.ProjectID+`.pdf"`)
			w.Write(data)
		}))

		r.Get("/recommend", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
			res, err := s.Recommend(r.Context())
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, res)
		}))

		r.Route("/animations", func(r chi.Router) {
			r.Get("/", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				writeJSON(w, 200, s.Animations())
			}))

			r.Post("/", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				var d animate.Descriptor
				if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
					writeError(w, 400, err)
					return
				}
				out, err := s.AddAnimation(r.Context(), d)
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, 201, out)
			}))

			r.Put("/{animationID}", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				var d animate.Descriptor
				if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
					writeError(w, 400, err)
					return
				}
				d.ID = chi.URLParam(r, "animationID")
				if err := s.UpdateAnimation(r.Context(), d); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, 200, d)
			}))

			r.Delete("/{animationID}", withSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
				if err := s.DeleteAnimation(r.Context(), chi.URLParam(r, "animationID")); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, 200, map[string]string{"status": "deleted"})
			}))
		})
	})

	r.Get("/palette", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, services.PaletteTypes())
	})

	return r
}
