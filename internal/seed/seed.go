package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/giftway/internal/auth/domain"
	"github.com/smallbiznis/giftway/internal/auth/password"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"gorm.io/gorm"
)

const (
	defaultCompanyName = "Main"
	defaultCompanyTax  = "MAIN"
	defaultAdminEmail  = "admin@giftway.local"
	// Default password for local setups only; rotate on first login.
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Giftway Admin"
)

// EnsureDefaultCompanyAndAdmin seeds the default company and admin user for
// local and staging bootstrap. Production startup must not call this.
func EnsureDefaultCompanyAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := ensureDefaultCompanyTx(ctx, tx, node)
		if err != nil {
			return err
		}

		var user authdomain.User
		err = tx.WithContext(ctx).
			Where("email = ?", defaultAdminEmail).
			First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hashed, err := password.Hash(defaultAdminPassword)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			companyID := company.ID
			user = authdomain.User{
				ID:           node.Generate(),
				Email:        strings.ToLower(defaultAdminEmail),
				DisplayName:  defaultAdminDisplay,
				PasswordHash: hashed,
				Role:         authdomain.RoleAdmin,
				CompanyID:    &companyID,
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func ensureDefaultCompanyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (companydomain.Company, error) {
	var company companydomain.Company
	err := tx.WithContext(ctx).Where("tax_id = ?", defaultCompanyTax).First(&company).Error
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return company, err
	}
	now := time.Now().UTC()
	company = companydomain.Company{
		ID:               node.Generate(),
		Name:             defaultCompanyName,
		TaxID:            defaultCompanyTax,
		BillingFrequency: companydomain.BillingFrequencyMonthly,
		CommissionRate:   0,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
		return company, err
	}
	return company, nil
}
