// Package call содержит модель данных плоскости управления вызовами:
// запись вызова с конечным автоматом состояний, отношение конференции,
// реестр живых вызовов и структурированные ошибки.
//
// Запись вызова проходит жизненный цикл строго по закрытой таблице
// переходов; прямые скачки в обход реконсилятора невозможны. Реестр
// сериализует все мутации через один мьютекс и гарантирует уникальность
// callId среди живых записей.
package call
