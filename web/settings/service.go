package settings

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/improvgroup/uniteller-payments/uniteller"
	"github.com/improvgroup/uniteller-payments/web/db"
)

// Setting names for the Uniteller payment method.
const (
	KeyShopIDP                 = "payments.uniteller.shopidp"
	KeyLogin                   = "payments.uniteller.login"
	KeyPassword                = "payments.uniteller.password"
	KeyAdditionalFee           = "payments.uniteller.additionalfee"
	KeyAdditionalFeePercentage = "payments.uniteller.additionalfeepercentage"
	KeyEnabled                 = "payments.uniteller.enabled"
)

var unitellerKeys = []string{
	KeyShopIDP, KeyLogin, KeyPassword,
	KeyAdditionalFee, KeyAdditionalFeePercentage, KeyEnabled,
}

type Service struct {
	DB *gorm.DB
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{DB: gdb}
}

// resolveValue picks the store-scoped row when present, otherwise the
// global (store 0) row.
func resolveValue(rows []db.Setting, storeID uint) string {
	value := ""
	for _, row := range rows {
		if row.StoreID == storeID {
			return row.Value
		}
		if row.StoreID == 0 {
			value = row.Value
		}
	}
	return value
}

func (s *Service) value(name string, storeID uint) string {
	var rows []db.Setting
	if err := s.DB.Where("name = ? AND store_id IN ?", name, []uint{storeID, 0}).Find(&rows).Error; err != nil {
		return ""
	}
	return resolveValue(rows, storeID)
}

// exists reports whether a store-scoped override row is present.
func (s *Service) exists(name string, storeID uint) bool {
	var count int64
	s.DB.Model(&db.Setting{}).Where("name = ? AND store_id = ?", name, storeID).Count(&count)
	return count > 0
}

// LoadUniteller resolves the payment method settings for a store scope.
func (s *Service) LoadUniteller(storeID uint) uniteller.Settings {
	fee, err := decimal.NewFromString(s.value(KeyAdditionalFee, storeID))
	if err != nil {
		fee = decimal.Zero
	}
	return uniteller.Settings{
		Credentials: uniteller.Credentials{
			ShopIDP:  s.value(KeyShopIDP, storeID),
			Login:    s.value(KeyLogin, storeID),
			Password: s.value(KeyPassword, storeID),
		},
		AdditionalFee:           fee,
		AdditionalFeePercentage: s.value(KeyAdditionalFeePercentage, storeID) == "true",
		Enabled:                 s.value(KeyEnabled, storeID) == "true",
	}
}

// ConfigurationModel mirrors the admin configure form. The override flags
// only matter for non-zero store scopes: a set flag saves a scoped row, a
// cleared flag deletes it so the global value applies again.
type ConfigurationModel struct {
	ShopIDP                 string `json:"shop_idp"`
	Login                   string `json:"login"`
	Password                string `json:"password"`
	AdditionalFee           string `json:"additional_fee"`
	AdditionalFeePercentage bool   `json:"additional_fee_percentage"`
	Enabled                 bool   `json:"enabled"`

	ShopIDPOverride                 bool `json:"shop_idp_override"`
	LoginOverride                   bool `json:"login_override"`
	PasswordOverride                bool `json:"password_override"`
	AdditionalFeeOverride           bool `json:"additional_fee_override"`
	AdditionalFeePercentageOverride bool `json:"additional_fee_percentage_override"`
	EnabledOverride                 bool `json:"enabled_override"`
}

// GetUnitellerModel returns the resolved settings plus the override flags
// for a store scope, for display in the admin form.
func (s *Service) GetUnitellerModel(storeID uint) ConfigurationModel {
	model := ConfigurationModel{
		ShopIDP:                 s.value(KeyShopIDP, storeID),
		Login:                   s.value(KeyLogin, storeID),
		Password:                s.value(KeyPassword, storeID),
		AdditionalFee:           s.value(KeyAdditionalFee, storeID),
		AdditionalFeePercentage: s.value(KeyAdditionalFeePercentage, storeID) == "true",
		Enabled:                 s.value(KeyEnabled, storeID) == "true",
	}
	if storeID > 0 {
		model.ShopIDPOverride = s.exists(KeyShopIDP, storeID)
		model.LoginOverride = s.exists(KeyLogin, storeID)
		model.PasswordOverride = s.exists(KeyPassword, storeID)
		model.AdditionalFeeOverride = s.exists(KeyAdditionalFee, storeID)
		model.AdditionalFeePercentageOverride = s.exists(KeyAdditionalFeePercentage, storeID)
		model.EnabledOverride = s.exists(KeyEnabled, storeID)
	}
	return model
}

func (s *Service) upsert(name string, storeID uint, value string) error {
	var row db.Setting
	err := s.DB.Where("name = ? AND store_id = ?", name, storeID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.DB.Create(&db.Setting{Name: name, StoreID: storeID, Value: value}).Error
	}
	if err != nil {
		return err
	}
	row.Value = value
	return s.DB.Save(&row).Error
}

func (s *Service) saveOne(name string, storeID uint, value string, override bool) error {
	if override || storeID == 0 {
		return s.upsert(name, storeID, value)
	}
	return s.DB.Where("name = ? AND store_id = ?", name, storeID).Delete(&db.Setting{}).Error
}

// SaveUniteller persists the admin form for a store scope.
func (s *Service) SaveUniteller(storeID uint, model ConfigurationModel) error {
	values := map[string]struct {
		value    string
		override bool
	}{
		KeyShopIDP:                 {model.ShopIDP, model.ShopIDPOverride},
		KeyLogin:                   {model.Login, model.LoginOverride},
		KeyPassword:                {model.Password, model.PasswordOverride},
		KeyAdditionalFee:           {model.AdditionalFee, model.AdditionalFeeOverride},
		KeyAdditionalFeePercentage: {strconv.FormatBool(model.AdditionalFeePercentage), model.AdditionalFeePercentageOverride},
		KeyEnabled:                 {strconv.FormatBool(model.Enabled), model.EnabledOverride},
	}
	for _, name := range unitellerKeys {
		v := values[name]
		if err := s.saveOne(name, storeID, v.value, v.override); err != nil {
			return err
		}
	}
	return nil
}
