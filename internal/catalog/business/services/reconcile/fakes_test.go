package reconcile

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
)

// In-memory stores backing the engine tests. Lookups copy on return so a
// caller mutating the result cannot bypass Update.

type fakeCategoryRepo struct {
	nextID  int
	items   map[int]models.Category
	creates int
	updates int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{items: map[int]models.Category{}}
}

func (r *fakeCategoryRepo) All(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCategoryRepo) ByID(ctx context.Context, id int) (*models.Category, error) {
	if c, ok := r.items[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) ByExternalID(ctx context.Context, externalID int64) (*models.Category, error) {
	for _, c := range r.items {
		if c.ExternalID != nil && *c.ExternalID == externalID {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) ByScrapedKey(ctx context.Context, key string) (*models.Category, error) {
	for _, c := range r.items {
		if c.ScrapedKey != nil && *c.ScrapedKey == key {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) BySlug(ctx context.Context, slug string) (*models.Category, error) {
	for _, c := range r.items {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *models.Category) (int, error) {
	r.nextID++
	category.ID = r.nextID
	r.items[category.ID] = *category
	r.creates++
	return category.ID, nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *models.Category) error {
	if _, ok := r.items[category.ID]; !ok {
		return errors.New("category not stored")
	}
	r.items[category.ID] = *category
	r.updates++
	return nil
}

type fakeManufacturerRepo struct {
	nextID  int
	items   map[int]models.Manufacturer
	creates int
}

func newFakeManufacturerRepo() *fakeManufacturerRepo {
	return &fakeManufacturerRepo{items: map[int]models.Manufacturer{}}
}

func (r *fakeManufacturerRepo) All(ctx context.Context) ([]models.Manufacturer, error) {
	out := make([]models.Manufacturer, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeManufacturerRepo) ByExternalID(ctx context.Context, externalID int64) (*models.Manufacturer, error) {
	for _, m := range r.items {
		if m.ExternalID != nil && *m.ExternalID == externalID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeManufacturerRepo) ByName(ctx context.Context, name string) (*models.Manufacturer, error) {
	for _, m := range r.items {
		if strings.EqualFold(m.Name, name) {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeManufacturerRepo) Create(ctx context.Context, manufacturer *models.Manufacturer) (int, error) {
	r.nextID++
	manufacturer.ID = r.nextID
	r.items[manufacturer.ID] = *manufacturer
	r.creates++
	return manufacturer.ID, nil
}

func (r *fakeManufacturerRepo) Update(ctx context.Context, manufacturer *models.Manufacturer) error {
	if _, ok := r.items[manufacturer.ID]; !ok {
		return errors.New("manufacturer not stored")
	}
	r.items[manufacturer.ID] = *manufacturer
	return nil
}

type fakeParameterRepo struct {
	nextID     int
	nextOptID  int
	items      map[int]models.Parameter
	options    map[int]models.ParameterOption
	creates    int
	optCreates int
}

func newFakeParameterRepo() *fakeParameterRepo {
	return &fakeParameterRepo{
		items:   map[int]models.Parameter{},
		options: map[int]models.ParameterOption{},
	}
}

func (r *fakeParameterRepo) All(ctx context.Context) ([]models.Parameter, error) {
	out := make([]models.Parameter, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParameterRepo) ByExternalID(ctx context.Context, externalID int64, categoryID int) (*models.Parameter, error) {
	for _, p := range r.items {
		if p.ExternalID != nil && *p.ExternalID == externalID && p.CategoryID == categoryID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeParameterRepo) ByScrapedKey(ctx context.Context, categoryID int, key string) (*models.Parameter, error) {
	for _, p := range r.items {
		if p.ScrapedKey != nil && *p.ScrapedKey == key && p.CategoryID == categoryID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeParameterRepo) Create(ctx context.Context, parameter *models.Parameter) (int, error) {
	r.nextID++
	parameter.ID = r.nextID
	r.items[parameter.ID] = *parameter
	r.creates++
	return parameter.ID, nil
}

func (r *fakeParameterRepo) Update(ctx context.Context, parameter *models.Parameter) error {
	if _, ok := r.items[parameter.ID]; !ok {
		return errors.New("parameter not stored")
	}
	r.items[parameter.ID] = *parameter
	return nil
}

func (r *fakeParameterRepo) AllOptions(ctx context.Context) ([]models.ParameterOption, error) {
	out := make([]models.ParameterOption, 0, len(r.options))
	for _, o := range r.options {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParameterRepo) OptionsByParameter(ctx context.Context, parameterID int) ([]models.ParameterOption, error) {
	var out []models.ParameterOption
	for _, o := range r.options {
		if o.ParameterID == parameterID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *fakeParameterRepo) OptionByExternalID(ctx context.Context, externalID int64, parameterID int) (*models.ParameterOption, error) {
	for _, o := range r.options {
		if o.ExternalID != nil && *o.ExternalID == externalID && o.ParameterID == parameterID {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (r *fakeParameterRepo) CreateOption(ctx context.Context, option *models.ParameterOption) (int, error) {
	r.nextOptID++
	option.ID = r.nextOptID
	r.options[option.ID] = *option
	r.optCreates++
	return option.ID, nil
}

func (r *fakeParameterRepo) UpdateOption(ctx context.Context, option *models.ParameterOption) error {
	if _, ok := r.options[option.ID]; !ok {
		return errors.New("option not stored")
	}
	r.options[option.ID] = *option
	return nil
}

type fakeProductRepo struct {
	nextID  int
	items   map[int]models.Product
	specs   map[int][]models.ProductParameter
	creates int
	updates int
	deletes int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		items: map[int]models.Product{},
		specs: map[int][]models.ProductParameter{},
	}
}

func (r *fakeProductRepo) ByExternalID(ctx context.Context, externalID int64) (*models.Product, error) {
	for _, p := range r.sorted() {
		if p.ExternalID != nil && *p.ExternalID == externalID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) BySKU(ctx context.Context, sku string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range r.sorted() {
		if p.SKU != nil && *p.SKU == sku {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *models.Product) (int, error) {
	r.nextID++
	product.ID = r.nextID
	r.items[product.ID] = *product
	r.creates++
	return product.ID, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *models.Product) error {
	if _, ok := r.items[product.ID]; !ok {
		return errors.New("product not stored")
	}
	r.items[product.ID] = *product
	r.updates++
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.items[id]; !ok {
		return errors.New("product not stored")
	}
	delete(r.items, id)
	delete(r.specs, id)
	r.deletes++
	return nil
}

func (r *fakeProductRepo) DuplicateSKUGroups(ctx context.Context) ([][]int, error) {
	bySKU := map[string][]int{}
	for _, p := range r.sorted() {
		if p.SKU != nil {
			bySKU[*p.SKU] = append(bySKU[*p.SKU], p.ID)
		}
	}
	return duplicateGroups(bySKU), nil
}

func (r *fakeProductRepo) DuplicateExternalIDGroups(ctx context.Context) ([][]int, error) {
	byExt := map[string][]int{}
	for _, p := range r.sorted() {
		if p.ExternalID != nil {
			key := strconv.FormatInt(*p.ExternalID, 10)
			byExt[key] = append(byExt[key], p.ID)
		}
	}
	return duplicateGroups(byExt), nil
}

func (r *fakeProductRepo) ReplaceParameters(ctx context.Context, productID int, params []models.ProductParameter) error {
	r.specs[productID] = append([]models.ProductParameter(nil), params...)
	return nil
}

func (r *fakeProductRepo) sorted() []models.Product {
	out := make([]models.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func duplicateGroups(index map[string][]int) [][]int {
	var groups [][]int
	for _, ids := range index {
		if len(ids) > 1 {
			sort.Ints(ids)
			groups = append(groups, ids)
		}
	}
	return groups
}

type fakeSyncRunRepo struct {
	nextID     int
	runs       map[int]models.SyncRun
	failCreate bool
}

func newFakeSyncRunRepo() *fakeSyncRunRepo {
	return &fakeSyncRunRepo{runs: map[int]models.SyncRun{}}
}

func (r *fakeSyncRunRepo) Create(ctx context.Context, run *models.SyncRun) (int, error) {
	if r.failCreate {
		return 0, errors.New("sync run store unavailable")
	}
	r.nextID++
	run.ID = r.nextID
	r.runs[run.ID] = *run
	return run.ID, nil
}

func (r *fakeSyncRunRepo) Finish(ctx context.Context, run *models.SyncRun) error {
	if _, ok := r.runs[run.ID]; !ok {
		return errors.New("sync run not stored")
	}
	r.runs[run.ID] = *run
	return nil
}

func newFakeRepositories() (storage.Repositories, *fakeCategoryRepo, *fakeManufacturerRepo, *fakeParameterRepo, *fakeProductRepo, *fakeSyncRunRepo) {
	categories := newFakeCategoryRepo()
	manufacturers := newFakeManufacturerRepo()
	parameters := newFakeParameterRepo()
	products := newFakeProductRepo()
	runs := newFakeSyncRunRepo()
	repos := storage.Repositories{
		Categories:    categories,
		Manufacturers: manufacturers,
		Parameters:    parameters,
		Products:      products,
		SyncRuns:      runs,
	}
	return repos, categories, manufacturers, parameters, products, runs
}
