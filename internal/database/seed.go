package database

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
)

type SeedReport struct {
	Noop             bool
	CreatedUsers     int
	CreatedVacancies int
}

var seedTitles = []string{
	"Warehouse operative", "Line assembler", "Cleaning staff",
	"Farm worker", "Construction helper", "Courier",
	"Warehouse operator", "Sorter", "Cook", "Housekeeper", "Driver",
}

var seedCities = []string{
	"Warsaw", "Krakow", "Gdansk", "Lodz", "Katowice", "Minsk", "Kyiv", "Lviv",
}

var seedSalaries = []string{
	"1200-2000 EUR", "1500-2500 EUR", "18-25 EUR/h", "1000-1600 EUR",
}

// SeedSync bootstraps a staff account and a batch of approved demo
// vacancies for local development. Second and later runs are a no-op.
func SeedSync(db *gorm.DB, adminEmail string) (SeedReport, error) {
	report := SeedReport{}

	adminEmail = strings.TrimSpace(strings.ToLower(adminEmail))
	if adminEmail == "" {
		adminEmail = "seed@example.com"
	}

	var staffCount int64
	if err := db.Model(&domain.User{}).Where("is_staff = ?", true).Count(&staffCount).Error; err != nil {
		return report, fmt.Errorf("count staff users: %w", err)
	}
	seedUser := domain.User{Email: adminEmail, IsStaff: true, PhoneVerified: true}
	if staffCount == 0 {
		if err := db.Where("email = ?", adminEmail).FirstOrCreate(&seedUser).Error; err != nil {
			return report, fmt.Errorf("create seed user: %w", err)
		}
		report.CreatedUsers++
	} else {
		if err := db.Where("is_staff = ?", true).First(&seedUser).Error; err != nil {
			return report, fmt.Errorf("load staff user: %w", err)
		}
	}

	var vacancyCount int64
	if err := db.Model(&domain.Vacancy{}).Count(&vacancyCount).Error; err != nil {
		return report, fmt.Errorf("count vacancies: %w", err)
	}
	if vacancyCount == 0 {
		now := time.Now().UTC()
		countries := []string{domain.CountryPoland, domain.CountryBelarus, domain.CountryUkraine, domain.CountryOther}
		categories := []string{domain.CategoryBusiness, domain.CategoryConstruction, domain.CategoryAgriculture, domain.CategoryService, domain.CategoryTourism}
		employments := []string{domain.EmploymentFull, domain.EmploymentPart, domain.EmploymentShift, domain.EmploymentContract}
		for i := 0; i < 40; i++ {
			v := domain.Vacancy{
				Title:            seedTitles[randIndex(len(seedTitles))],
				Country:          countries[randIndex(len(countries))],
				City:             seedCities[randIndex(len(seedCities))],
				Category:         categories[randIndex(len(categories))],
				EmploymentType:   employments[randIndex(len(employments))],
				Salary:           seedSalaries[randIndex(len(seedSalaries))],
				Description:      "Seeded vacancy for local development.",
				Source:           domain.SourceDirect,
				CreatedByID:      seedUser.ID,
				CreatorToken:     randomHex(32),
				PublishedAt:      now.Add(-time.Duration(i) * time.Hour),
				ExpiresAt:        now.Add(30 * 24 * time.Hour),
				IsApproved:       true,
				EditingStartedAt: &now,
			}
			if err := db.Create(&v).Error; err != nil {
				return report, fmt.Errorf("create seed vacancy: %w", err)
			}
			report.CreatedVacancies++
		}
	}

	report.Noop = report.CreatedUsers == 0 && report.CreatedVacancies == 0
	return report, nil
}

func randIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(i.Int64())
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
