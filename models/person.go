package models

import (
	"errors"

	"facerec/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Person maps a classifier label to a display name
type Person struct {
	Label     int    `gorm:"primaryKey;autoIncrement:false" json:"label"`
	CreatedAt int64  `json:"created"`
	UpdatedAt int64  `json:"updated"`
	Name      string `gorm:"type:varchar(300);index" json:"name"`
}

// TableName overrides the table name
func (Person) TableName() string {
	return "people"
}

type PersonInfo struct {
	Label   int    `json:"label"`
	Name    string `json:"name"`
	Created int64  `json:"created"`
	Samples int    `json:"samples"`
}

// Save inserts the person or updates the name of an existing label
func (p *Person) Save() error {
	return db.Instance.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "label"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(p).Error
}

// CreateIfMissing inserts the person, keeping the name of an existing label
func (p *Person) CreateIfMissing() (created bool, err error) {
	result := db.Instance.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	return result.RowsAffected > 0, result.Error
}

func GetPerson(label int) (p Person, err error) {
	err = db.Instance.Where("label = ?", label).First(&p).Error
	return
}

// FindPersonByName returns the most recently enrolled label with that name
func FindPersonByName(name string) (p Person, found bool, err error) {
	err = db.Instance.Where("name = ?", name).Order("updated_at DESC, label DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, false, nil
	}
	return p, err == nil, err
}

func MaxLabel() (int, error) {
	max := 0
	err := db.Instance.Model(&Person{}).Select("coalesce(max(label), 0)").Row().Scan(&max)
	return max, err
}

func LabelNames() (map[int]string, error) {
	people := []Person{}
	if err := db.Instance.Find(&people).Error; err != nil {
		return nil, err
	}
	result := make(map[int]string, len(people))
	for _, p := range people {
		result[p.Label] = p.Name
	}
	return result, nil
}

func ListPeople() ([]PersonInfo, error) {
	rows, err := db.Instance.
		Table("people").
		Select("people.label, people.name, people.created_at, count(samples.id)").
		Joins("left join samples on samples.person_label = people.label").
		Group("people.label, people.name, people.created_at").
		Order("people.label").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []PersonInfo{}
	for rows.Next() {
		info := PersonInfo{}
		if err = rows.Scan(&info.Label, &info.Name, &info.Created, &info.Samples); err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	return result, rows.Err()
}

func RenamePerson(label int, name string) error {
	result := db.Instance.Model(&Person{}).Where("label = ?", label).Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePerson removes the person and its sample rows
func DeletePerson(label int) error {
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_label = ?", label).Delete(&Sample{}).Error; err != nil {
			return err
		}
		return tx.Where("label = ?", label).Delete(&Person{}).Error
	})
}

func CountPeople() (count int64, err error) {
	err = db.Instance.Model(&Person{}).Count(&count).Error
	return
}
