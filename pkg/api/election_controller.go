package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/k8s-leaselock/pkg/config"
	"github.com/telekom/k8s-leaselock/pkg/election"
)

// ElectionController exposes the participant's local view of the election.
// The reported leader flag is a point-in-time read; it is accurate for
// routing decisions but not a distributed truth.
type ElectionController struct {
	log     *zap.SugaredLogger
	config  config.Config
	elector *election.Elector
}

func NewElectionController(log *zap.SugaredLogger, cfg config.Config, elector *election.Elector) *ElectionController {
	return &ElectionController{
		log:     log,
		config:  cfg,
		elector: elector,
	}
}

func (ElectionController) BasePath() string {
	return "election/"
}

func (ec *ElectionController) Handlers() []gin.HandlerFunc {
	return nil
}

func (ec *ElectionController) Register(rg *gin.RouterGroup) error {
	rg.GET("/status", ec.handleGetStatus)
	rg.GET("/leader", RequireLeader(ec.elector), ec.handleLeaderCheck)

	return nil
}

// ElectionStatus is the payload of GET /api/election/status.
type ElectionStatus struct {
	Identity       string `json:"identity"`
	IsLeader       bool   `json:"isLeader"`
	LeaseName      string `json:"leaseName"`
	LeaseNamespace string `json:"leaseNamespace"`
}

func (ec *ElectionController) handleGetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, ElectionStatus{
		Identity:       ec.elector.Identity(),
		IsLeader:       ec.elector.IsLeader(),
		LeaseName:      ec.config.Election.LeaseName,
		LeaseNamespace: ec.config.Election.LeaseNamespace,
	})
}

// handleLeaderCheck only ever runs behind RequireLeader, so reaching it
// means this instance held the lease when the request was admitted. Load
// balancers can poll it to find the leader.
func (ec *ElectionController) handleLeaderCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"leader": ec.elector.Identity()})
}

// RequireLeader runs the rest of the handler chain under the elector's
// leader guard. Requests reaching a non-leader are rejected with 503 so
// clients and load balancers know to retry against another replica.
func RequireLeader(e *election.Elector) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := e.AsLeader(c.Request.Context(), func(context.Context) error {
			c.Next()
			return nil
		})
		if errors.Is(err, election.ErrNotLeader) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":    "this instance is not the leader",
				"identity": e.Identity(),
			})
		}
	}
}
