package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

// SortField orders registry listings
type SortField string

const (
	SortByName    SortField = "name"
	SortByChainID SortField = "chain"
)

// ParseSortField validates a sort flag
func ParseSortField(s string) (SortField, error) {
	switch SortField(strings.ToLower(s)) {
	case "", SortByName:
		return SortByName, nil
	case SortByChainID, "chainid", "chain-id":
		return SortByChainID, nil
	default:
		return "", fmt.Errorf("unknown sort field %q (use name or chain)", s)
	}
}

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	// Search fuzzy-matches network names and chain IDs
	Search     string
	SortBy     SortField
	Descending bool
}

// DeploymentSummary aggregates a listing
type DeploymentSummary struct {
	Total    int
	Mainnets int
	Testnets int
}

// DeploymentListResult is the outcome of ListDeployments
type DeploymentListResult struct {
	Deployments []*models.FactoryDeployment
	Summary     DeploymentSummary
}

// ListDeployments is the use case for listing the networks the factory is live on
type ListDeployments struct {
	repo DeploymentRepository
	sink ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(repo DeploymentRepository, sink ProgressSink) *ListDeployments {
	return &ListDeployments{
		repo: repo,
		sink: sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	// Report progress
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments from registry",
		Spinner: true,
	})

	deployments, err := uc.repo.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}

	if params.Search != "" {
		deployments = searchDeployments(deployments, params.Search)
	}

	sortDeployments(deployments, params.SortBy, params.Descending)

	// Report completion
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(deployments),
		Total:   len(deployments),
		Message: "Deployments loaded",
	})

	return &DeploymentListResult{
		Deployments: deployments,
		Summary:     calculateSummary(deployments),
	}, nil
}

// searchDeployments keeps entries whose name or chain ID fuzzy-matches
// query, best matches first
func searchDeployments(deployments []*models.FactoryDeployment, query string) []*models.FactoryDeployment {
	targets := lo.Map(deployments, func(dep *models.FactoryDeployment, _ int) string {
		return strings.ToLower(dep.Name) + " " + strconv.FormatUint(dep.ChainID, 10)
	})

	matches := fuzzy.Find(strings.ToLower(query), targets)
	return lo.Map(matches, func(m fuzzy.Match, _ int) *models.FactoryDeployment {
		return deployments[m.Index]
	})
}

// sortDeployments sorts by the requested field, ties broken by chain ID
func sortDeployments(deployments []*models.FactoryDeployment, field SortField, descending bool) {
	less := func(a, b *models.FactoryDeployment) bool {
		if field != SortByChainID {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				return an < bn
			}
		}
		return a.ChainID < b.ChainID
	}

	sort.SliceStable(deployments, func(i, j int) bool {
		if descending {
			return less(deployments[j], deployments[i])
		}
		return less(deployments[i], deployments[j])
	})
}

// calculateSummary calculates summary statistics for deployments
func calculateSummary(deployments []*models.FactoryDeployment) DeploymentSummary {
	summary := DeploymentSummary{Total: len(deployments)}
	for _, dep := range deployments {
		if dep.IsTestnet() {
			summary.Testnets++
		} else {
			summary.Mainnets++
		}
	}
	return summary
}
