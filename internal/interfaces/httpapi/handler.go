package httpapi

import (
	"net/http"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/domain/squad"
	"github.com/sixerhq/chain-contests/internal/platform/logging"
	"github.com/sixerhq/chain-contests/internal/usecase"
)

type Handler struct {
	queries *usecase.QueryService
	logger  *logging.Logger
}

func NewHandler(queries *usecase.QueryService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		queries: queries,
		logger:  logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	seriesID := r.URL.Query().Get("seriesId")
	status := r.URL.Query().Get("status")

	matches, err := h.queries.GetMatches(ctx, seriesID, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "series_id", seriesID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListContests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListContests")
	defer span.End()

	seriesID := r.URL.Query().Get("seriesId")

	contests, err := h.queries.GetContests(ctx, seriesID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list contests failed", "series_id", seriesID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]contestDTO, 0, len(contests))
	for _, c := range contests {
		items = append(items, contestToDTO(c))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetContestDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetContestDetails")
	defer span.End()

	contestID := r.PathValue("contestID")

	c, err := h.queries.GetContestDetails(ctx, contestID)
	if err != nil {
		h.logger.WarnContext(ctx, "get contest details failed", "contest_id", contestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, contestToDTO(c))
}

func (h *Handler) GetMatchData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchData")
	defer span.End()

	contestID := r.URL.Query().Get("contestId")

	teams, err := h.queries.GetMatchData(ctx, contestID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match data failed", "contest_id", contestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

type matchDTO struct {
	MatchID      string   `json:"matchId"`
	Name         string   `json:"name"`
	Team1Players []string `json:"team1Players"`
	Team2Players []string `json:"team2Players"`
	Tiers        []int    `json:"tiers"`
	StartTime    int64    `json:"startTime"`
	Status       string   `json:"status"`
	SeriesID     string   `json:"seriesId"`
	DateTimeGMT  string   `json:"dateTimeGMT,omitempty"`
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		MatchID:      m.MatchID,
		Name:         m.Name,
		Team1Players: m.Team1Players,
		Team2Players: m.Team2Players,
		Tiers:        m.Tiers,
		StartTime:    m.StartTime,
		Status:       m.Status,
		SeriesID:     m.SeriesID,
		DateTimeGMT:  m.DateTimeGMT,
	}
}

type contestDTO struct {
	ContestID   string   `json:"contestId"`
	MatchID     string   `json:"matchId"`
	MatchName   string   `json:"matchName"`
	PlayerNames []string `json:"playerNames"`
	PlayerTiers []int    `json:"playerTiers"`
	StartTime   int64    `json:"startTime"`
	MatchEnded  bool     `json:"matchEnded"`
	SeriesID    string   `json:"seriesId"`
}

func contestToDTO(c contest.Contest) contestDTO {
	return contestDTO{
		ContestID:   c.ContestID,
		MatchID:     c.MatchID,
		MatchName:   c.MatchName,
		PlayerNames: c.PlayerNames,
		PlayerTiers: c.PlayerTiers,
		StartTime:   c.StartTime,
		MatchEnded:  c.MatchEnded,
		SeriesID:    c.SeriesID,
	}
}

type squadPlayerDTO struct {
	PlayerID  string `json:"playerId,omitempty"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	PlayerImg string `json:"playerImg,omitempty"`
}

type teamDTO struct {
	TeamName  string           `json:"teamName"`
	ShortName string           `json:"shortname,omitempty"`
	Players   []squadPlayerDTO `json:"players"`
}

func teamToDTO(t squad.Team) teamDTO {
	players := make([]squadPlayerDTO, 0, len(t.Players))
	for _, p := range t.Players {
		players = append(players, squadPlayerDTO{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Role:      p.Role,
			PlayerImg: p.PlayerImg,
		})
	}
	return teamDTO{
		TeamName:  t.TeamName,
		ShortName: t.ShortName,
		Players:   players,
	}
}
