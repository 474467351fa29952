package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"yarmarka/catalog-service/internal/app/catalog/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProductRepositoryTestSuite тестовый suite для PostgreSQL repository
type ProductRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  ProductRepository
	sqlDB *sql.DB
}

func TestProductRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProductRepositoryTestSuite))
}

func (s *ProductRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewProductRepository(s.db)
}

func (s *ProductRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

func productRows(products ...entity.Product) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "category_id", "name", "description", "price",
		"refund_policy", "is_archived", "is_private", "created_at", "updated_at",
	})
	for _, p := range products {
		rows.AddRow(p.ID, p.TenantID, p.CategoryID, p.Name, p.Description, p.Price,
			p.RefundPolicy, p.IsArchived, p.IsPrivate, p.CreatedAt, p.UpdatedAt)
	}
	return rows
}

// ===================== GetByID =====================

func (s *ProductRepositoryTestSuite) TestGetByID_Success() {
	ctx := context.Background()
	product := entity.Product{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		CategoryID:   uuid.New(),
		Name:         "Беспроводные наушники",
		Description:  "Наушники с активным шумоподавлением",
		Price:        4990,
		RefundPolicy: "30-day",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1`)).
		WithArgs(product.ID).
		WillReturnRows(productRows(product))

	got, err := s.repo.GetByID(ctx, product.ID)

	s.NoError(err)
	s.NotNil(got)
	s.Equal(product.ID, got.ID)
	s.Equal(product.Name, got.Name)
	s.Equal(4990.0, got.Price)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetByID_NotFound() {
	ctx := context.Background()
	id := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(gorm.ErrRecordNotFound)

	got, err := s.repo.GetByID(ctx, id)

	s.ErrorIs(err, ErrProductNotFound)
	s.Nil(got)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== List =====================

func (s *ProductRepositoryTestSuite) TestList_DefaultsHideArchivedAndPrivate() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE is_archived = $1 AND is_private = $2`)).
		WithArgs(false, false).
		WillReturnRows(productRows())

	products, err := s.repo.List(ctx, ProductFilter{})

	s.NoError(err)
	s.Empty(products)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestList_TenantStorefrontKeepsPrivate() {
	ctx := context.Background()
	tenantID := uuid.New()
	product := entity.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "Закрытая предзаказная позиция",
		IsPrivate: true,
	}

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE is_archived = $1 AND tenant_id = $2`)).
		WithArgs(false, tenantID).
		WillReturnRows(productRows(product))

	products, err := s.repo.List(ctx, ProductFilter{
		TenantID:       &tenantID,
		IncludePrivate: true,
	})

	s.NoError(err)
	s.Len(products, 1)
	s.True(products[0].IsPrivate)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestList_SearchAndPriceRange() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`name ILIKE $3 AND price >= $4 AND price <= $5`)).
		WithArgs(false, false, "%наушники%", 1000.0, 5000.0).
		WillReturnRows(productRows())

	_, err := s.repo.List(ctx, ProductFilter{
		Search:   "наушники",
		MinPrice: 1000,
		MaxPrice: 5000,
	})

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestList_PriceAscSort() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY price ASC`)).
		WithArgs(false, false).
		WillReturnRows(productRows())

	_, err := s.repo.List(ctx, ProductFilter{Sort: "price_asc"})

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Update =====================

func (s *ProductRepositoryTestSuite) TestUpdate_Success() {
	ctx := context.Background()
	product := &entity.Product{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Name:       "Наушники",
		Price:      3990,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.Update(ctx, product)

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestUpdate_NotFound() {
	ctx := context.Background()
	product := &entity.Product{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Name:       "Наушники",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.repo.Update(ctx, product)

	s.ErrorIs(err, ErrProductNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== SetArchived =====================

func (s *ProductRepositoryTestSuite) TestSetArchived_Success() {
	ctx := context.Background()
	id := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "is_archived"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.SetArchived(ctx, id, true)

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Delete =====================

func (s *ProductRepositoryTestSuite) TestDelete_NotFound() {
	ctx := context.Background()
	id := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.repo.Delete(ctx, id)

	s.ErrorIs(err, ErrProductNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}
