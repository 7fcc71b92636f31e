package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"
)

type gamePath struct {
	ID string `path:"id"`
	TZ string `query:"tz" description:"IANA time zone for time-of-day labels."`
}

type submitRequest struct {
	ID   string `path:"id"`
	TZ   string `query:"tz"`
	Text string `json:"text" required:"true"`
}

type modeQuery struct {
	Mode string `query:"mode" enum:"country,city"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Pinpoint API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Geography guessing game: ask yes/no questions about a secret place, then guess it.")

	health, _ := r.NewOperationContext(http.MethodGet, "/health")
	health.SetSummary("Health check")
	health.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(health)

	create, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	create.SetSummary("Start a game")
	create.SetDescription("Draws a secret location for the mode and returns the new game.")
	create.AddReqStructure(CreateGameRequest{})
	create.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	create.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(create)

	get, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}")
	get.SetSummary("Get game")
	get.AddReqStructure(gamePath{})
	get.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	get.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(get)

	ask, _ := r.NewOperationContext(http.MethodPost, "/api/games/{id}/questions")
	ask.SetSummary("Ask a question")
	ask.SetDescription("Asks the oracle a yes/no question. Blank questions, questions past the limit of 20 and questions after the game is won are ignored with 409.")
	ask.AddReqStructure(submitRequest{})
	ask.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	ask.AddRespStructure(IgnoredResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	ask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(ask)

	guess, _ := r.NewOperationContext(http.MethodPost, "/api/games/{id}/guesses")
	guess.SetSummary("Guess the location")
	guess.SetDescription("Submits a guess. A correct guess ends the game.")
	guess.AddReqStructure(submitRequest{})
	guess.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	guess.AddRespStructure(IgnoredResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	guess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(guess)

	reset, _ := r.NewOperationContext(http.MethodDelete, "/api/games/{id}")
	reset.SetSummary("Reset game")
	reset.SetDescription("Discards the game; the player returns to the menu.")
	reset.AddReqStructure(gamePath{})
	reset.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	reset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(reset)

	board, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	board.SetSummary("Daily leaderboard")
	board.AddReqStructure(modeQuery{})
	board.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	board.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(board)

	qr, _ := r.NewOperationContext(http.MethodGet, "/qr")
	qr.SetSummary("Share QR code")
	qr.SetDescription("PNG QR code linking to a new game in the given mode.")
	qr.AddReqStructure(modeQuery{})
	qr.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("image/png"))
	qr.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(qr)

	return r.Spec
}

func handleOpenAPI() gin.HandlerFunc {
	data, _ := json.MarshalIndent(newOpenAPISpec(), "", "  ")
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
	}
}

func handleDocs() gin.HandlerFunc {
	return gin.WrapH(v5emb.New("Pinpoint API", "/openapi.json", "/docs/"))
}
