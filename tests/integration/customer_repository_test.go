package integration

import (
	"context"
	"testing"

	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/erp/orderstats/internal/infrastructure/dataset"
	"github.com/erp/orderstats/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCustomerRepository_Integration tests the CustomerRepository against a real PostgreSQL database
func TestCustomerRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := testDB.Repo
	ctx := context.Background()

	t.Run("Save and LoadCustomers keep order and values", func(t *testing.T) {
		testDB.CleanTables(t)
		want := testutil.SampleCustomers()
		require.NoError(t, repo.Save(ctx, want))

		got, err := repo.LoadCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, got, len(want))

		for i := range want {
			assert.Equal(t, want[i].ID(), got[i].ID())
			assert.Equal(t, want[i].Email(), got[i].Email())
			assert.Equal(t, want[i].Address().Country(), got[i].Address().Country())
			require.Len(t, got[i].Orders(), len(want[i].Orders()))
			for j, o := range want[i].Orders() {
				g := got[i].Orders()[j]
				assert.Equal(t, o.PaymentInfo(), g.PaymentInfo())
				require.Len(t, g.Items(), len(o.Items()))
				for k, it := range o.Items() {
					assert.True(t, it.Product().Price().Equal(g.Items()[k].Product().Price()))
					assert.Equal(t, it.Quantity(), g.Items()[k].Quantity())
				}
			}
		}
	})

	t.Run("Save appends after existing rows", func(t *testing.T) {
		testDB.CleanTables(t)
		sample := testutil.SampleCustomers()
		require.NoError(t, repo.Save(ctx, sample[:2]))
		require.NoError(t, repo.Save(ctx, sample[2:]))

		got, err := repo.LoadCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "cat@example.com", got[2].Email())

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("generated dataset round trips", func(t *testing.T) {
		testDB.CleanTables(t)
		gen := dataset.NewGenerator(dataset.DefaultGeneratorConfig(21, 50))
		want, err := gen.LoadCustomers(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, want))

		got, err := repo.LoadCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, got, 50)

		countOrders := func(cs []*shop.Customer) int {
			n := 0
			for range shop.AllOrders(shop.Customers(cs...)) {
				n++
			}
			return n
		}
		assert.Equal(t, countOrders(want), countOrders(got))
	})

	t.Run("DeleteAll empties every table", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, testutil.SampleCustomers()[:1]))
		require.NoError(t, repo.DeleteAll(ctx))

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
