package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/benchmark"
	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/service"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"catalog_version": s.svc.Catalog().Version(),
	})
}

// --- Companies ---

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCompanyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	c, err := s.svc.CreateCompany(r.Context(), in)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type listCompaniesQuery struct {
	Sector string `validate:"omitempty,max=100"`
	Query  string `validate:"omitempty,max=100"`
	Limit  int    `validate:"min=0,max=500"`
	Offset int    `validate:"min=0"`
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit")
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	offset, err := intParam(q, "offset")
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}

	params := listCompaniesQuery{
		Sector: strings.TrimSpace(q.Get("sector")),
		Query:  strings.TrimSpace(q.Get("q")),
		Limit:  limit,
		Offset: offset,
	}
	if err := s.validate.StructCtx(r.Context(), params); err != nil {
		writeError(w, r, eris.Wrapf(service.ErrValidation, "api: %v", err), msgInternal)
		return
	}

	companies, err := s.svc.ListCompanies(r.Context(), model.CompanyFilter{
		Sector: params.Sector,
		Query:  params.Query,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) companyScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.svc.CompanyScores(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// --- Scores ---

type calculateScoreRequest struct {
	CompanyID string          `json:"company_id" validate:"required"`
	Responses json.RawMessage `json:"responses"`
}

func (s *Server) calculateScore(w http.ResponseWriter, r *http.Request) {
	var req calculateScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, msgScoreFailed)
		return
	}
	if err := s.validate.StructCtx(r.Context(), req); err != nil {
		writeError(w, r, eris.Wrapf(service.ErrValidation, "api: %v", err), msgScoreFailed)
		return
	}

	score, err := s.svc.CalculateScore(r.Context(), req.CompanyID, req.Responses)
	if err != nil {
		writeError(w, r, err, msgScoreFailed)
		return
	}
	writeJSON(w, http.StatusCreated, score)
}

func (s *Server) comparativeScore(w http.ResponseWriter, r *http.Request) {
	var req service.ComparativeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, msgScoreFailed)
		return
	}
	res, err := s.svc.ComparativeScore(r.Context(), req)
	if err != nil {
		writeError(w, r, err, msgScoreFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.svc.GetScore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) generateActionPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GenerateActionPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Questionnaires ---

func (s *Server) questionnaire(w http.ResponseWriter, r *http.Request) {
	sector, err := url.PathUnescape(chi.URLParam(r, "sector"))
	if err != nil {
		writeError(w, r, eris.Wrapf(errBadRequest, "api: sector: %v", err), msgInternal)
		return
	}
	q, err := s.svc.Questionnaire(sector)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// --- Administration ---

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	var opts service.StatsOptions
	if v := r.URL.Query().Get("demo"); v != "" {
		demo, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, eris.Wrap(errBadRequest, "api: demo must be true or false"), msgInternal)
			return
		}
		opts.UseDemoData = demo
	}

	stats, err := s.svc.DashboardStats(r.Context(), opts)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) listBenchmarks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.svc.ListBenchmarks(r.Context(), model.BenchmarkFilter{
		Sector:   strings.TrimSpace(q.Get("sector")),
		Category: strings.TrimSpace(q.Get("category")),
	})
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	if rows == nil {
		rows = []model.SectorBenchmark{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// importBenchmarks accepts a multipart upload in the "file" field (xlsx or
// csv).
func (s *Server) importBenchmarks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, eris.Wrapf(errBadRequest, "api: file upload: %v", err), msgInternal)
		return
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		writeError(w, r, eris.Wrapf(errBadRequest, "api: unsupported file type %q", ext), msgInternal)
		return
	}

	tmp, err := os.CreateTemp("", "benchmarks-*"+ext)
	if err != nil {
		writeError(w, r, eris.Wrap(err, "api: create temp file"), msgInternal)
		return
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		writeError(w, r, eris.Wrap(err, "api: save upload"), msgInternal)
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, r, eris.Wrap(err, "api: save upload"), msgInternal)
		return
	}

	res, err := s.svc.ImportBenchmarks(r.Context(), tmp.Name())
	if errors.Is(err, benchmark.ErrBadSheet) {
		writeError(w, r, eris.Wrapf(errBadRequest, "api: import %s: %v", header.Filename, err), msgInternal)
		return
	}
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) deleteBenchmark(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteBenchmark(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAllBenchmarks(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.DeleteAllBenchmarks(r.Context())
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Wrapf(errBadRequest, "api: %s must be an integer", name)
	}
	return n, nil
}
