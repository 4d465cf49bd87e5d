// Package callmanager реализует плоскость управления менеджера вызовов:
// командную поверхность для прикладного уровня, реконсиляцию
// асинхронных отчетов нижнего уровня с реестром вызовов и рассылку
// событий упорядоченному списку наблюдателей.
//
// Два независимых производителя мутируют общее состояние: путь команд
// (ControlManager) и путь отчетов (StatusManager). Обе стороны
// сериализуют мутации через мьютексы реестра и слота набора; мьютексы
// отпускаются до вызова наблюдателей и воркера, чтобы обратный вызов
// в реестр не приводил к взаимоблокировке.
package callmanager
