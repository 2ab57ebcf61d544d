package httpapi

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(leagues, leagueToDTO))
}

func (h *Handler) GetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentPeriod", leagueAttr(leagueID))
	defer span.End()

	item, info, err := h.leagueService.CurrentPeriod(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get current period failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"league": leagueToDTO(item),
		"period": periodToDTO(info),
	})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard", leagueAttr(leagueID))
	defer span.End()

	board, err := h.scoringService.Leaderboard(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardDTO{
		League:    leagueToDTO(board.League),
		Scores:    mapSlice(board.Scores, scoreToDTO),
		Snapshots: mapSlice(board.Snapshots, snapshotToDTO),
	})
}

func (h *Handler) GetLeagueState(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeagueState", leagueAttr(leagueID))
	defer span.End()

	state, err := h.scoringService.LeagueState(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league state failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueStateDTO{
		League:    leagueToDTO(state.League),
		Period:    periodToDTO(state.Period),
		Picks:     mapSlice(state.Picks, pickToDTO),
		Swaps:     mapSlice(state.Swaps, swapToDTO),
		Positions: mapSlice(state.Positions, positionToDTO),
		Scores:    mapSlice(state.Scores, scoreToDTO),
	})
}

func (h *Handler) GetTransparency(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTransparency", leagueAttr(leagueID))
	defer span.End()

	wallet := strings.TrimSpace(r.URL.Query().Get("wallet"))
	if err := h.validateRequest(ctx, transparencyQuery{Wallet: wallet}); err != nil {
		writeError(ctx, w, err)
		return
	}

	feed, err := h.transparencyService.Reconcile(ctx, leagueID, wallet)
	if err != nil {
		h.logger.WarnContext(ctx, "reconcile transparency feed failed", "league_id", leagueID, "wallet", wallet, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, feedToDTO(feed))
}

func (h *Handler) ListPicks(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPicks", leagueAttr(leagueID))
	defer span.End()

	memberID := r.URL.Query().Get("member_id")
	items, err := h.pickService.ListPicks(ctx, leagueID, memberID)
	if err != nil {
		h.logger.WarnContext(ctx, "list picks failed", "league_id", leagueID, "member_id", memberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, pickToDTO))
}

func (h *Handler) RecordPick(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordPick", leagueAttr(leagueID))
	defer span.End()

	var req recordPickRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.pickService.RecordPick(ctx, usecase.RecordPickInput{
		LeagueID: leagueID,
		MemberID: req.MemberID,
		MarketID: req.MarketID,
		Side:     req.Side,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record pick failed",
			"league_id", leagueID,
			"member_id", req.MemberID,
			"market_id", req.MarketID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, pickToDTO(item))
}

func (h *Handler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSwaps", leagueAttr(leagueID))
	defer span.End()

	memberID := r.URL.Query().Get("member_id")
	items, err := h.swapService.ListSwaps(ctx, leagueID, memberID)
	if err != nil {
		h.logger.WarnContext(ctx, "list swaps failed", "league_id", leagueID, "member_id", memberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, swapToDTO))
}

func (h *Handler) RecordSwap(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordSwap", leagueAttr(leagueID))
	defer span.End()

	var req recordSwapRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	// numeric validation already guarantees both parse.
	notionalIn, _ := decimal.NewFromString(req.NotionalIn)
	requestedPrice, _ := decimal.NewFromString(req.RequestedPrice)

	result, err := h.swapService.RecordSwap(ctx, usecase.RecordSwapInput{
		LeagueID:       leagueID,
		MemberID:       req.MemberID,
		MarketID:       req.MarketID,
		OutcomeID:      req.OutcomeID,
		Side:           req.Side,
		NotionalIn:     notionalIn,
		RequestedPrice: requestedPrice,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record swap failed",
			"league_id", leagueID,
			"member_id", req.MemberID,
			"market_id", req.MarketID,
			"outcome_id", req.OutcomeID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, recordSwapDTO{
		Swap:        swapToDTO(result.Swap),
		Position:    positionToDTO(result.Position),
		SeededQuote: result.SeededQuote,
	})
}
