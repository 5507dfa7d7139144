//go:build integration

package cypher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"spectra/internal/mark"
	"spectra/internal/mark/store/cypher"
	"spectra/internal/platform/graph"
	"spectra/pkg/marktypes"
	"spectra/pkg/testutil/containers"
)

type CypherStoreSuite struct {
	suite.Suite
	neo4j   *containers.Neo4jContainer
	gateway *graph.Gateway
	store   *cypher.Store
	ctx     context.Context
}

func TestCypherStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CypherStoreSuite))
}

func (s *CypherStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.neo4j = containers.NewNeo4jContainer(s.T())

	gateway, err := graph.New(s.ctx, graph.Config{
		URI:      s.neo4j.URI,
		Username: s.neo4j.Username,
		Password: s.neo4j.Password,
	})
	s.Require().NoError(err)
	s.gateway = gateway
	s.store = cypher.New(gateway)
}

func (s *CypherStoreSuite) TearDownSuite() {
	if s.gateway != nil {
		_ = s.gateway.Close(context.Background())
	}
}

func (s *CypherStoreSuite) SetupTest() {
	s.Require().NoError(s.neo4j.Wipe(s.ctx))
}

func (s *CypherStoreSuite) upsert(onchain bool, from, to string, value bool, t marktypes.Type) mark.UpsertResult {
	res, err := s.store.Upsert(s.ctx, onchain, mark.Request{
		FromParticipantID: from,
		ToParticipantID:   to,
		Value:             value,
		Type:              t,
	})
	s.Require().NoError(err)
	return res
}

// TestUpsertProtocol verifies create-then-update against a live graph.
func (s *CypherStoreSuite) TestUpsertProtocol() {
	first := s.upsert(false, "u1", "u2", true, marktypes.OffchainRelation)
	s.True(first.Created)
	s.NotEmpty(first.Mark.ID)
	s.True(first.Mark.Value)
	s.False(first.Mark.CreatedAt.IsZero())

	second := s.upsert(false, "u1", "u2", false, marktypes.OffchainRelation)
	s.False(second.Created)
	s.Equal(first.Mark.ID, second.Mark.ID)
	s.False(second.Mark.Value)
	s.False(second.Mark.UpdatedAt.Before(first.Mark.UpdatedAt))
}

// TestNamespaceIsolation verifies onchain and offchain edges never collide.
func (s *CypherStoreSuite) TestNamespaceIsolation() {
	s.upsert(false, "u1", "u2", true, marktypes.OffchainRelation)
	res := s.upsert(true, "u1", "u2", false, marktypes.OnchainTrust)
	s.True(res.Created)

	offchain, err := s.store.MutualMarks(s.ctx, false, "u1", "u2", marktypes.OffchainRelation)
	s.Require().NoError(err)
	s.Require().NotNil(offchain.FromTo)
	s.True(*offchain.FromTo)

	onchain, err := s.store.MutualMarks(s.ctx, true, "u1", "u2", marktypes.OnchainTrust)
	s.Require().NoError(err)
	s.Require().NotNil(onchain.FromTo)
	s.False(*onchain.FromTo)
}

// TestMutualMarks verifies direction handling over the live schema.
func (s *CypherStoreSuite) TestMutualMarks() {
	s.upsert(false, "u1", "u2", true, marktypes.OffchainRelation)
	s.upsert(false, "u2", "u1", false, marktypes.OffchainRelation)

	mm, err := s.store.MutualMarks(s.ctx, false, "u1", "u2", marktypes.OffchainRelation)
	s.Require().NoError(err)
	s.Require().NotNil(mm.FromTo)
	s.Require().NotNil(mm.ToFrom)
	s.True(*mm.FromTo)
	s.False(*mm.ToFrom)

	absent, err := s.store.MutualMarks(s.ctx, false, "u1", "u3", marktypes.OffchainRelation)
	s.Require().NoError(err)
	s.Nil(absent.FromTo)
	s.Nil(absent.ToFrom)
}

// TestCommonParticipants verifies intermediate discovery with all four edge
// directions.
func (s *CypherStoreSuite) TestCommonParticipants() {
	// u3 is connected to both endpoints, u4 only to u1.
	s.upsert(false, "u1", "u3", true, marktypes.OffchainRelation)
	s.upsert(false, "u3", "u1", true, marktypes.OffchainRelation)
	s.upsert(false, "u3", "u2", false, marktypes.OffchainRelation)
	s.upsert(false, "u2", "u3", true, marktypes.OffchainRelation)
	s.upsert(false, "u1", "u4", true, marktypes.OffchainRelation)

	common, err := s.store.CommonParticipants(s.ctx, false, "u1", "u2", marktypes.OffchainRelation)
	s.Require().NoError(err)
	s.Require().Len(common, 1)

	c := common[0]
	s.Equal("u3", c.IntermediateID)
	s.Require().NotNil(c.FromToIntermediate)
	s.True(*c.FromToIntermediate)
	s.Require().NotNil(c.IntermediateToTo)
	s.False(*c.IntermediateToTo)
	s.Require().NotNil(c.IntermediateToFrom)
	s.Require().NotNil(c.ToToIntermediate)
}

// TestChangelog verifies history accumulation and scoping on the live graph.
func (s *CypherStoreSuite) TestChangelog() {
	s.upsert(false, "u1", "u2", true, marktypes.OffchainRelation)
	s.upsert(false, "u1", "u2", false, marktypes.OffchainRelation)
	s.upsert(false, "u2", "u1", true, marktypes.OffchainRelation)

	entries, err := s.store.Changelog(s.ctx, false, "u1", "u2", marktypes.OffchainRelation)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.True(entries[0].Value)
	s.False(entries[1].Value)
	s.Equal("u1", entries[0].ParticipantID)
	s.NotEmpty(entries[0].ID)
	s.False(entries[0].CreatedAt.After(entries[1].CreatedAt))
}
