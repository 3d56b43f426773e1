package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pevans/fairscrape/extract"
	"github.com/pevans/fairscrape/products"
	"github.com/pevans/fairscrape/scraper"
)

// ProductSource provides products with their sizes.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]products.Product, error)
}

// MarketplaceHeader is the column header of the shop import template.
var MarketplaceHeader = []string{
	"Наименование",
	"Наименование артикула",
	"Код артикула",
	"Валюта",
	"Цена",
	"Доступен для заказа",
	"Зачеркнутая цена",
	"Закупочная цена",
	"В наличии",
	"Основной артикул",
	"В наличии @Склад в Москве",
	"В наличии @Склад в Европе",
	"Краткое описание",
	"Описание",
	"Наклейка",
	"Статус",
	"Тип товаров",
	"Теги",
	"Облагается налогом",
	"Заголовок",
	"META Keywords",
	"META Description",
	"Ссылка на витрину",
	"Адрес видео на YouTube или Vimeo",
	"Дополнительные параметры",
	"Производитель",
	"Бренд",
	"Подходящие модели автомобилей",
	"Вес",
	"Страна происхождения",
	"Пол",
	"Цвет",
	"Материал",
	"Материал подошвы",
	"Уровень",
	"Максимальный вес пользователя",
	"Размер",
	"Изображения",
	"Изображения",
}

// Column positions in MarketplaceHeader.
const (
	colName = iota
	colVariantName
	colSKU
	colCurrency
	colPrice
	colOrderable
	colComparePrice
	colPurchasePrice
	colInStock
	colMainSKU
	colStockMoscow
	colStockEurope
	colSummary
	colDescription
	colBadge
	colStatus
	colType
	colTags
	colTaxable
	colTitle
	colMetaKeywords
	colMetaDescription
	colStorefrontURL
	colVideo
	colExtra
	colManufacturer
	colBrand
	colCarModels
	colWeight
	colCountry
	colGender
	colColor
	colMaterial
	colSoleMaterial
	colLevel
	colMaxWeight
	colSize
	colFrontPicture
	colBackPicture

	marketplaceColumns
)

// placeholderRows are the category and subcategory rows the import expects
// before any product.
func placeholderRows() [][]string {
	category := make([]string, marketplaceColumns)
	category[colName] = "<Категория>"
	category[colStorefrontURL] = "<Ссылка на категорию>"

	subcategory := make([]string, marketplaceColumns)
	subcategory[colName] = "<Подкатегория>"
	subcategory[colStorefrontURL] = "<Ссылка на подкатегорию>"

	return [][]string{category, subcategory}
}

// WriteMarketplace writes the shop import file: the header, two placeholder
// rows, then one block per product followed by an empty row. It returns
// the number of products written.
func WriteMarketplace(ctx context.Context, out io.Writer, src ProductSource, m scraper.Marketplace) (int, error) {
	list, err := src.ListProducts(ctx)
	if err != nil {
		return 0, err
	}

	w := NewWriter(out)
	if err := w.Write(MarketplaceHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range placeholderRows() {
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	written := 0
	for i := range list {
		block := ProductRows(&list[i], m)
		if block == nil {
			continue
		}
		for _, row := range block {
			if err := w.Write(row); err != nil {
				return written, fmt.Errorf("failed to write product %s: %w", list[i].ProductURL, err)
			}
		}
		if err := w.Write(make([]string, marketplaceColumns)); err != nil {
			return written, fmt.Errorf("failed to write product %s: %w", list[i].ProductURL, err)
		}
		written++
	}

	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush output: %w", err)
	}

	return written, nil
}

// ProductRows expands a product into its import block: an aggregate row
// first, then one row per size in ascending order. Only the first size row
// carries the pictures. A product without sizes has no block.
func ProductRows(p *products.Product, m scraper.Marketplace) [][]string {
	if len(p.Sizes) == 0 {
		return nil
	}

	sizes := make([]products.Size, len(p.Sizes))
	copy(sizes, p.Sizes)
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Value < sizes[j].Value })

	base := baseRow(p, m)
	rows := make([][]string, 0, len(sizes)+1)

	available := 0
	values := make([]string, 0, len(sizes))
	for i, size := range sizes {
		value := clean(size.Value)
		values = append(values, value)
		if size.Available {
			available++
		}

		row := make([]string, marketplaceColumns)
		copy(row, base)
		row[colVariantName] = value + ", " + clean(p.Colors)
		setStock(row, boolCount(size.Available))
		row[colSize] = value
		if i == 0 {
			row[colFrontPicture] = p.FrontPicture
			row[colBackPicture] = clean(p.BackPicture)
		}
		rows = append(rows, row)
	}

	aggregate := make([]string, marketplaceColumns)
	copy(aggregate, base)
	setStock(aggregate, available)
	aggregate[colGender] = m.Gender
	aggregate[colColor] = variant(m, clean(p.Colors))
	aggregate[colSize] = variant(m, strings.Join(values, ","))
	aggregate[colFrontPicture] = p.FrontPicture
	aggregate[colBackPicture] = clean(p.BackPicture)

	return append([][]string{aggregate}, rows...)
}

// baseRow fills the columns shared by every row of a product block.
func baseRow(p *products.Product, m scraper.Marketplace) []string {
	name := clean(p.Name)
	keywords := strings.Join(strings.Split(name, " "), ", ")
	price := strconv.FormatInt(extract.CeilPrice(p.PriceCleaned), 10)

	row := make([]string, marketplaceColumns)
	row[colName] = name
	row[colCurrency] = m.Currency
	row[colPrice] = price
	row[colComparePrice] = "0"
	row[colPurchasePrice] = price
	row[colStockMoscow] = "0"
	row[colSummary] = name
	row[colDescription] = clean(p.DescriptionHTML)
	row[colStatus] = "1"
	row[colType] = m.ProductType
	row[colTags] = keywords
	row[colTitle] = name
	row[colMetaKeywords] = keywords
	row[colMetaDescription] = clean(p.DescriptionText)
	row[colStorefrontURL] = clean(p.NameURL)
	row[colManufacturer] = p.Manufacturer
	row[colBrand] = p.Manufacturer
	row[colColor] = clean(p.Colors)
	return row
}

func setStock(row []string, n int) {
	count := strconv.Itoa(n)
	row[colOrderable] = count
	row[colInStock] = count
	row[colStockEurope] = count
}

func variant(m scraper.Marketplace, list string) string {
	if m.VariantFormat == "" {
		return list
	}
	return fmt.Sprintf(m.VariantFormat, list)
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// clean replaces double quotes, which the importer rejects inside fields.
func clean(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
